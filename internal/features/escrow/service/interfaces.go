package service

import (
	"context"
	"crypto/ed25519"
	"math/big"

	"ad-escrow-backend/internal/features/escrow/keys"
	"ad-escrow-backend/internal/features/escrow/models"
	tonplatform "ad-escrow-backend/internal/platform/ton"

	"github.com/xssnick/tonutils-go/address"
)

// Wallets derives the admin and per-deal escrow wallets from the master
// mnemonic.
type Wallets interface {
	Admin() (*keys.Derived, error)
	Escrow(dealID uint64) (*keys.Derived, error)
}

// SignatureVerifier checks one party's TonConnect signature over the deal
// terms.
type SignatureVerifier interface {
	Verify(params *models.DealParams, meta *models.PartySignMeta, expected *address.Address) error
}

// Chain is the slice of the chain client the escrow decisions need.
type Chain interface {
	Balance(ctx context.Context, addr *address.Address) (*big.Int, error)
	FirstIncomingTransfer(ctx context.Context, addr *address.Address) (*tonplatform.Deposit, error)
	Transfer(ctx context.Context, key ed25519.PrivateKey, to *address.Address, amount *big.Int, comment string) (string, error)
}

// Registry reads and writes the on-chain deal registry.
type Registry interface {
	Deal(ctx context.Context, dealID uint64) (*models.StoredDeal, error)
	Register(ctx context.Context, adminKey ed25519.PrivateKey, params *models.DealParams) (string, error)
}

// ContentVerifier reports whether the advertised post exists unmodified in
// the channel.
type ContentVerifier interface {
	CheckPostStatus(ctx context.Context, channelID int64, postID uint64, expectedHash [32]byte, verificationChatID int64) (models.PostStatus, error)
}
