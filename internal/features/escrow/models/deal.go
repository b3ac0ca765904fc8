package models

import (
	"crypto/ed25519"
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"
)

// DealParams holds the terms both parties cryptographically commit to.
// PostID and PostedAt are known only after the post is published and are
// deliberately excluded from the signed payload; they are verified against
// the channel content instead.
type DealParams struct {
	DealID      uint64
	ChannelID   int64 // Telegram channel ids are negative
	PostID      uint64
	ContentHash [32]byte // SHA-256 of the post text/caption
	Duration    uint32   // seconds the post must remain unmodified
	Publisher   *address.Address
	Advertiser  *address.Address
	Amount      *big.Int // nanoTON
	PostedAt    int64
}

// PartySignMeta is one party's proof of agreement over DealParams,
// produced by its TonConnect wallet.
type PartySignMeta struct {
	Signature []byte // 64-byte ed25519 signature
	PublicKey ed25519.PublicKey
	Timestamp int64  // envelope creation time, unix seconds
	Domain    string // origin that solicited the signature
}

// StoredDeal is the registry contract's on-chain record, created exactly
// once per deal id and immutable afterwards. It is the source of truth for
// "is this deal registered", not any local store.
type StoredDeal struct {
	ChannelID   int64
	PostID      uint64
	ContentHash [32]byte
	Duration    uint32
	Publisher   *address.Address
	Advertiser  *address.Address
	Amount      *big.Int
	PostedAt    int64
	CreatedAt   int64
}

// Deadline is the moment the post must have survived until for a release.
func (d *StoredDeal) Deadline() time.Time {
	return time.Unix(d.PostedAt+int64(d.Duration), 0)
}

// PostStatus is the outcome of a channel content check.
type PostStatus string

const (
	PostValid    PostStatus = "valid"
	PostDeleted  PostStatus = "deleted"
	PostModified PostStatus = "modified"
)

// CheckAction is the settlement outcome of a single checkDeal evaluation.
type CheckAction string

const (
	ActionReleased CheckAction = "released"
	ActionRefunded CheckAction = "refunded"
	ActionPending  CheckAction = "pending"
)

// CheckDealResult is produced fresh on every evaluation and never stored.
type CheckDealResult struct {
	Action CheckAction `json:"action"`
	TxRef  string      `json:"tx_ref,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

func Released(txRef string) *CheckDealResult {
	return &CheckDealResult{Action: ActionReleased, TxRef: txRef}
}

func Refunded(txRef string) *CheckDealResult {
	return &CheckDealResult{Action: ActionRefunded, TxRef: txRef}
}

func Pending(reason string) *CheckDealResult {
	return &CheckDealResult{Action: ActionPending, Reason: reason}
}
