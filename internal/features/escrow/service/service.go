package service

import (
	"context"
	"errors"
	"math/big"
	"time"

	apperrors "ad-escrow-backend/internal/common/errors"
	"ad-escrow-backend/internal/common/logger"
	"ad-escrow-backend/internal/features/escrow/keys"
	"ad-escrow-backend/internal/features/escrow/models"
	"ad-escrow-backend/internal/features/escrow/registry"

	"github.com/rs/zerolog"
	"github.com/xssnick/tonutils-go/address"
)

const (
	// depositTimeout is the business rule for deposits whose deal never got
	// registered: after this long the advertiser can get the money back.
	depositTimeout = 12 * time.Hour
)

// gasReserve stays on the escrow wallet through every payout so the
// transfer itself can be paid for.
var gasReserve = big.NewInt(50_000_000) // 0.05 TON

// EscrowService is the orchestrator. It owns no durable state: wallets are
// re-derived, deal records live on chain, post status lives in the channel.
// Instances can be restarted or replicated freely and concurrent checks of
// the same deal are serialized by the escrow wallet's on-chain seqno.
type EscrowService struct {
	wallets  Wallets
	verifier SignatureVerifier
	chain    Chain
	registry Registry
	content  ContentVerifier

	defaultChatID int64
	now           func() time.Time
	log           zerolog.Logger
}

// NewEscrowService wires the orchestrator. chain, reg and content may be
// nil: the service then degrades to wallet derivation only and the other
// operations report a configuration failure instead of crashing.
func NewEscrowService(wallets Wallets, verifier SignatureVerifier, chain Chain, reg Registry, content ContentVerifier, defaultChatID int64) *EscrowService {
	return &EscrowService{
		wallets:       wallets,
		verifier:      verifier,
		chain:         chain,
		registry:      reg,
		content:       content,
		defaultChatID: defaultChatID,
		now:           time.Now,
		log:           logger.With("escrow"),
	}
}

// WithClock overrides the wall clock, for tests.
func (s *EscrowService) WithClock(now func() time.Time) *EscrowService {
	s.now = now
	return s
}

// CreateEscrowWallet derives the deposit address for a deal. Idempotent:
// the same deal id always yields the same address, so the advertiser can
// see where to deposit before anything is registered.
func (s *EscrowService) CreateEscrowWallet(dealID uint64) (*keys.Derived, error) {
	return s.wallets.Escrow(dealID)
}

// VerifyAndRegisterDeal runs the ordered checks of the registration
// protocol and, when all pass, submits the create-deal message signed by
// the admin wallet. It never moves the deposit. The returned reference
// means the registration was submitted, not finalized; callers confirm
// via CheckDeal.
func (s *EscrowService) VerifyAndRegisterDeal(ctx context.Context, params *models.DealParams, publisherSig, advertiserSig *models.PartySignMeta, verificationChatID int64) (string, error) {
	if err := s.verifier.Verify(params, publisherSig, params.Publisher); err != nil {
		return "", apperrors.NewVerificationError("Publisher signature invalid: %v", err)
	}
	if err := s.verifier.Verify(params, advertiserSig, params.Advertiser); err != nil {
		return "", apperrors.NewVerificationError("Advertiser signature invalid: %v", err)
	}

	if s.chain == nil || s.registry == nil {
		return "", apperrors.NewNotConfiguredError("chain access")
	}
	if s.content == nil {
		return "", apperrors.NewNotConfiguredError("content verification")
	}

	escrow, err := s.wallets.Escrow(params.DealID)
	if err != nil {
		return "", err
	}
	balance, err := s.chain.Balance(ctx, escrow.Address)
	if err != nil {
		return "", apperrors.NewChainError("read escrow balance", err)
	}
	if balance.Cmp(params.Amount) < 0 {
		return "", apperrors.NewVerificationError("Insufficient deposit. Expected %s, found %s", params.Amount, balance)
	}

	status, err := s.content.CheckPostStatus(ctx, params.ChannelID, params.PostID, params.ContentHash, s.chat(verificationChatID))
	if err != nil {
		return "", err
	}
	switch status {
	case models.PostDeleted:
		return "", apperrors.NewVerificationError("Post not found in channel")
	case models.PostModified:
		return "", apperrors.NewVerificationError("Post content does not match expected hash")
	}

	admin, err := s.wallets.Admin()
	if err != nil {
		return "", err
	}
	txRef, err := s.registry.Register(ctx, admin.PrivateKey, params)
	if err != nil {
		return "", apperrors.NewChainError("register deal", err)
	}

	s.log.Info().
		Uint64("deal_id", params.DealID).
		Str("escrow", escrow.Address.String()).
		Str("tx_ref", txRef).
		Msg("Deal verified and registration submitted")
	return txRef, nil
}

// CheckDeal re-derives the deal's lifecycle state from the chain and the
// channel and settles it when a terminal condition is met. Safe to call on
// any schedule and concurrently: once a payout empties the wallet, a later
// check observes a zero balance and stays pending.
func (s *EscrowService) CheckDeal(ctx context.Context, dealID uint64, verificationChatID int64) (*models.CheckDealResult, error) {
	if s.chain == nil || s.registry == nil {
		return nil, apperrors.NewNotConfiguredError("chain access")
	}

	escrow, err := s.wallets.Escrow(dealID)
	if err != nil {
		return nil, err
	}

	state, err := s.observe(ctx, dealID, escrow.Address, verificationChatID)
	if err != nil {
		return nil, err
	}

	d := decide(state, s.now(), gasReserve, depositTimeout)
	if d.Plan == nil {
		s.log.Debug().
			Uint64("deal_id", dealID).
			Str("reason", d.Result.Reason).
			Msg("Deal check pending")
		return d.Result, nil
	}

	txRef, err := s.chain.Transfer(ctx, escrow.PrivateKey, d.Plan.To, d.Plan.Amount, d.Plan.Comment)
	if err != nil {
		return nil, apperrors.NewChainError("settlement transfer", err)
	}

	s.log.Info().
		Uint64("deal_id", dealID).
		Str("action", string(d.Plan.Action)).
		Str("to", d.Plan.To.String()).
		Str("amount", d.Plan.Amount.String()).
		Str("tx_ref", txRef).
		Msg("Escrow settled")

	if d.Plan.Action == models.ActionReleased {
		return models.Released(txRef), nil
	}
	return models.Refunded(txRef), nil
}

// observe gathers the deal's current state without side effects. Reading
// the deposit history is skipped entirely while the balance is zero, and a
// failed history read degrades to an unreadable-history state instead of an
// error; the decision turns it into a conservative pending.
func (s *EscrowService) observe(ctx context.Context, dealID uint64, escrowAddr *address.Address, verificationChatID int64) (DealState, error) {
	deal, err := s.registry.Deal(ctx, dealID)
	if err != nil {
		if !errors.Is(err, registry.ErrDealNotFound) {
			return nil, apperrors.NewChainError("read deal record", err)
		}

		balance, err := s.chain.Balance(ctx, escrowAddr)
		if err != nil {
			return nil, apperrors.NewChainError("read escrow balance", err)
		}
		if balance.Sign() == 0 {
			return Unregistered{Balance: balance}, nil
		}

		deposit, err := s.chain.FirstIncomingTransfer(ctx, escrowAddr)
		if err != nil {
			s.log.Warn().Uint64("deal_id", dealID).Err(err).Msg("Deposit history unreadable")
			return Unregistered{Balance: balance, HistoryUnreadable: true}, nil
		}
		return Unregistered{Balance: balance, Deposit: deposit}, nil
	}

	if s.content == nil {
		return nil, apperrors.NewNotConfiguredError("content verification")
	}
	status, err := s.content.CheckPostStatus(ctx, deal.ChannelID, deal.PostID, deal.ContentHash, s.chat(verificationChatID))
	if err != nil {
		return nil, err
	}
	balance, err := s.chain.Balance(ctx, escrowAddr)
	if err != nil {
		return nil, apperrors.NewChainError("read escrow balance", err)
	}
	return Registered{Deal: deal, Content: status, Balance: balance}, nil
}

func (s *EscrowService) chat(requested int64) int64 {
	if requested != 0 {
		return requested
	}
	return s.defaultChatID
}
