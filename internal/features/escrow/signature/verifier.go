package signature

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"hash/crc32"

	"ad-escrow-backend/internal/features/escrow/keys"
	"ad-escrow-backend/internal/features/escrow/models"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// signDataPrefix is the fixed magic a TonConnect wallet prepends when
// signing structured cell data (as opposed to a transaction).
const signDataPrefix = 0x75569022

// payloadSchema describes the signed record. Its CRC-32 goes into the
// envelope, so the wallet and this verifier must agree on it byte for byte.
// PostID and PostedAt are absent on purpose: both parties sign before the
// post exists.
const payloadSchema = "deal_id:uint64 channel_id:int64 content_hash:uint256 duration:uint32 parties:^[publisher:address advertiser:address amount:coins]"

var schemaCRC = crc32.ChecksumIEEE([]byte(payloadSchema))

var (
	ErrAddressMismatch   = errors.New("public key does not match address")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// PayloadCell builds the canonical signed record from deal terms.
func PayloadCell(p *models.DealParams) *cell.Cell {
	parties := cell.BeginCell().
		MustStoreAddr(p.Publisher).
		MustStoreAddr(p.Advertiser).
		MustStoreBigCoins(p.Amount).
		EndCell()

	return cell.BeginCell().
		MustStoreUInt(p.DealID, 64).
		MustStoreInt(p.ChannelID, 64).
		MustStoreSlice(p.ContentHash[:], 256).
		MustStoreUInt(uint64(p.Duration), 32).
		MustStoreRef(parties).
		EndCell()
}

// EnvelopeCell reconstructs the exact cell a compliant wallet hashes and
// signs: magic, schema crc, timestamp, signer address, domain ref, payload
// ref. Field order and widths must not change, or signatures from real
// wallets stop verifying.
func EnvelopeCell(p *models.DealParams, signer *address.Address, timestamp int64, domain string) *cell.Cell {
	domainCell := cell.BeginCell().
		MustStoreStringSnake(domain).
		EndCell()

	return cell.BeginCell().
		MustStoreUInt(signDataPrefix, 32).
		MustStoreUInt(uint64(schemaCRC), 32).
		MustStoreUInt(uint64(timestamp), 64).
		MustStoreAddr(signer).
		MustStoreRef(domainCell).
		MustStoreRef(PayloadCell(p)).
		EndCell()
}

// Verifier checks TonConnect signData signatures over DealParams.
// Pure, no network or disk access.
type Verifier struct{}

func NewVerifier() Verifier {
	return Verifier{}
}

// Verify confirms that meta proves expectedAddress authorized exactly the
// terms in params. The key is first bound to the claimed wallet address,
// then the envelope is rebuilt and the ed25519 signature checked against
// its hash.
func (Verifier) Verify(params *models.DealParams, meta *models.PartySignMeta, expected *address.Address) error {
	if len(meta.PublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("bad public key length %d", len(meta.PublicKey))
	}

	implied, err := keys.AddressOfPubKey(meta.PublicKey)
	if err != nil {
		return fmt.Errorf("derive address from public key: %w", err)
	}
	if !sameAddress(implied, expected) {
		return ErrAddressMismatch
	}

	envelope := EnvelopeCell(params, implied, meta.Timestamp, meta.Domain)
	if !ed25519.Verify(meta.PublicKey, envelope.Hash(), meta.Signature) {
		return ErrSignatureMismatch
	}
	return nil
}

func sameAddress(a, b *address.Address) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Workchain() == b.Workchain() && bytes.Equal(a.Data(), b.Data())
}
