package keys

import (
	"crypto/ed25519"
	"fmt"
	"math"

	apperrors "ad-escrow-backend/internal/common/errors"

	"github.com/tyler-smith/go-bip39"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/ton/wallet"
)

// coinTypeTON is the registered BIP-44 coin type for TON.
const coinTypeTON = 607

// adminIndex is the derivation index of the service's own operating wallet.
// Escrow wallets start at index 1, so deal id N maps to index N+1 and no
// deal ever shares an address with the admin wallet or another deal.
const adminIndex = 0

// Derived is a wallet computed on demand from the master mnemonic. It is
// never persisted and its private key must never be logged.
type Derived struct {
	Address    *address.Address
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
	Path       string
	Index      uint32
}

// Deriver turns (mnemonic, index) into TON V4R2 wallets deterministically.
// Pure computation, no I/O.
type Deriver struct {
	seed []byte
}

func NewDeriver(mnemonic string) (*Deriver, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidMnemonic, "mnemonic is not a valid BIP-39 phrase")
	}
	return &Deriver{seed: bip39.NewSeed(mnemonic, "")}, nil
}

// Derive computes the wallet at m/44'/607'/index'. Same inputs always
// produce the same wallet.
func (d *Deriver) Derive(index uint32) (*Derived, error) {
	secret, err := deriveEd25519(d.seed, []uint32{44, coinTypeTON, index})
	if err != nil {
		return nil, err
	}

	priv := ed25519.NewKeyFromSeed(secret)
	pub := priv.Public().(ed25519.PublicKey)

	addr, err := wallet.AddressFromPubKey(pub, wallet.V4R2, wallet.DefaultSubwallet)
	if err != nil {
		return nil, fmt.Errorf("compute wallet address: %w", err)
	}

	return &Derived{
		Address:    addr,
		PublicKey:  pub,
		PrivateKey: priv,
		Path:       fmt.Sprintf("m/44'/%d'/%d'", coinTypeTON, index),
		Index:      index,
	}, nil
}

// Admin derives the service's operating wallet, which signs registry
// registrations.
func (d *Deriver) Admin() (*Derived, error) {
	return d.Derive(adminIndex)
}

// Escrow derives the single-deal custody wallet for dealID.
func (d *Deriver) Escrow(dealID uint64) (*Derived, error) {
	if dealID >= math.MaxUint32 {
		return nil, fmt.Errorf("deal id %d out of derivable range", dealID)
	}
	return d.Derive(uint32(dealID) + 1)
}

// AddressOfPubKey maps a raw ed25519 public key to the V4R2 wallet address
// it controls. Used to bind a signer's key to its claimed wallet.
func AddressOfPubKey(pub ed25519.PublicKey) (*address.Address, error) {
	return wallet.AddressFromPubKey(pub, wallet.V4R2, wallet.DefaultSubwallet)
}
