package http

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"

	"ad-escrow-backend/internal/features/escrow/keys"
	"ad-escrow-backend/internal/features/escrow/models"

	"github.com/xssnick/tonutils-go/address"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateWalletRequest struct {
	DealID uint64 `json:"deal_id"`
}

type CreateWalletResponse struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"` // hex
}

func newCreateWalletResponse(d *keys.Derived) CreateWalletResponse {
	return CreateWalletResponse{
		Address:   d.Address.String(),
		PublicKey: hex.EncodeToString(d.PublicKey),
	}
}

// DealParamsDTO mirrors models.DealParams with wire-friendly encodings:
// hex content hash, friendly addresses, decimal nanoTON amount.
type DealParamsDTO struct {
	DealID      uint64 `json:"deal_id"`
	ChannelID   int64  `json:"channel_id" binding:"required"`
	PostID      uint64 `json:"post_id" binding:"required"`
	ContentHash string `json:"content_hash" binding:"required" example:"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"`
	Duration    uint32 `json:"duration" binding:"required"`
	Publisher   string `json:"publisher" binding:"required" example:"EQD4FPq-PRD4YtG87wgL7AErgQwHUMFQ-JxyYw8jzBPhqjfH"`
	Advertiser  string `json:"advertiser" binding:"required"`
	Amount      string `json:"amount" binding:"required" example:"1000000000"`
	PostedAt    int64  `json:"posted_at" binding:"required"`
}

func (d *DealParamsDTO) toModel() (*models.DealParams, error) {
	publisher, err := address.ParseAddr(d.Publisher)
	if err != nil {
		return nil, fmt.Errorf("publisher address: %w", err)
	}
	advertiser, err := address.ParseAddr(d.Advertiser)
	if err != nil {
		return nil, fmt.Errorf("advertiser address: %w", err)
	}

	hashBytes, err := hex.DecodeString(d.ContentHash)
	if err != nil || len(hashBytes) != 32 {
		return nil, fmt.Errorf("content_hash must be 32 hex-encoded bytes")
	}

	amount, ok := new(big.Int).SetString(d.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be a positive decimal integer")
	}

	params := &models.DealParams{
		DealID:     d.DealID,
		ChannelID:  d.ChannelID,
		PostID:     d.PostID,
		Duration:   d.Duration,
		Publisher:  publisher,
		Advertiser: advertiser,
		Amount:     amount,
		PostedAt:   d.PostedAt,
	}
	copy(params.ContentHash[:], hashBytes)
	return params, nil
}

// SignMetaDTO is one party's TonConnect signature envelope metadata.
type SignMetaDTO struct {
	Signature string `json:"signature" binding:"required"`  // base64
	PublicKey string `json:"public_key" binding:"required"` // hex
	Timestamp int64  `json:"timestamp" binding:"required"`
	Domain    string `json:"domain" binding:"required" example:"marketplace.example.com"`
}

func (s *SignMetaDTO) toModel() (*models.PartySignMeta, error) {
	sig, err := base64.StdEncoding.DecodeString(s.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature must be 64 base64-encoded bytes")
	}
	pub, err := hex.DecodeString(s.PublicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public_key must be 32 hex-encoded bytes")
	}
	return &models.PartySignMeta{
		Signature: sig,
		PublicKey: ed25519.PublicKey(pub),
		Timestamp: s.Timestamp,
		Domain:    s.Domain,
	}, nil
}

type VerifyDealRequest struct {
	Params             DealParamsDTO `json:"params" binding:"required"`
	Publisher          SignMetaDTO   `json:"publisher" binding:"required"`
	Advertiser         SignMetaDTO   `json:"advertiser" binding:"required"`
	VerificationChatID int64         `json:"verification_chat_id"`
}

type VerifyDealResponse struct {
	Success bool   `json:"success"`
	TxRef   string `json:"tx_ref,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CheckDealRequest struct {
	DealID             uint64 `json:"deal_id"`
	VerificationChatID int64  `json:"verification_chat_id"`
}
