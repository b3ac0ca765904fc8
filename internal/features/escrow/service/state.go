package service

import (
	"fmt"
	"math/big"
	"time"

	"ad-escrow-backend/internal/features/escrow/models"
	tonplatform "ad-escrow-backend/internal/platform/ton"

	"github.com/xssnick/tonutils-go/address"
)

// The deal lifecycle is re-derived from chain and channel state on every
// check; nothing below is ever stored. The two states and the single
// decision function keep the settlement rules in one testable place.

// DealState is the observed situation of a deal at evaluation time.
type DealState interface {
	dealState()
}

// Unregistered: no registry record exists. The escrow wallet may still hold
// a deposit awaiting registration.
type Unregistered struct {
	Balance *big.Int
	// Deposit is the earliest incoming transfer, nil when the wallet has no
	// readable history.
	Deposit           *tonplatform.Deposit
	HistoryUnreadable bool
}

func (Unregistered) dealState() {}

// Registered: the registry holds the deal record and content has been
// checked against it.
type Registered struct {
	Deal    *models.StoredDeal
	Content models.PostStatus
	Balance *big.Int
}

func (Registered) dealState() {}

// transferPlan is a fund movement the decision wants executed. The action
// becomes the check result once the transfer is submitted.
type transferPlan struct {
	To      *address.Address
	Amount  *big.Int
	Comment string
	Action  models.CheckAction
}

type decision struct {
	// Result is set when the check terminates without moving funds.
	Result *models.CheckDealResult
	Plan   *transferPlan
}

// decide maps an observed deal state to the settlement outcome. Pure: every
// ambiguous input resolves to a pending result, never to a transfer, so a
// misread can delay funds but not misdirect them.
func decide(st DealState, now time.Time, gasReserve *big.Int, depositTimeout time.Duration) decision {
	switch s := st.(type) {
	case Unregistered:
		return decideUnregistered(s, now, gasReserve, depositTimeout)
	case Registered:
		return decideRegistered(s, now, gasReserve)
	default:
		return decision{Result: models.Pending("unknown deal state")}
	}
}

func decideUnregistered(s Unregistered, now time.Time, gasReserve *big.Int, depositTimeout time.Duration) decision {
	if s.Balance == nil || s.Balance.Sign() == 0 {
		return decision{Result: models.Pending("no funds in escrow")}
	}
	if s.HistoryUnreadable {
		return decision{Result: models.Pending("could not read deposit history")}
	}
	if s.Deposit == nil || s.Deposit.From == nil {
		return decision{Result: models.Pending("cannot determine depositor")}
	}

	elapsed := now.Sub(s.Deposit.At)
	if elapsed < depositTimeout {
		remaining := (depositTimeout - elapsed).Round(time.Second)
		return decision{Result: models.Pending(fmt.Sprintf("refund available in %s", remaining))}
	}

	transferable := new(big.Int).Sub(s.Balance, gasReserve)
	if transferable.Sign() <= 0 {
		return decision{Result: models.Pending("insufficient balance")}
	}
	return decision{Plan: &transferPlan{
		To:      s.Deposit.From,
		Amount:  transferable,
		Comment: "escrow timeout refund",
		Action:  models.ActionRefunded,
	}}
}

func decideRegistered(s Registered, now time.Time, gasReserve *big.Int) decision {
	switch s.Content {
	case models.PostDeleted, models.PostModified:
		return settle(s, gasReserve, s.Deal.Advertiser, "deal refund", models.ActionRefunded)
	}

	if now.Before(s.Deal.Deadline()) {
		remaining := int64(s.Deal.Deadline().Sub(now).Seconds())
		return decision{Result: models.Pending(fmt.Sprintf("Duration not passed. %ds remaining.", remaining))}
	}
	return settle(s, gasReserve, s.Deal.Publisher, "deal release", models.ActionReleased)
}

// settle plans the escrow payout, leaving the gas reserve behind. A wallet
// already drained by an earlier check resolves to pending, never to a
// second transfer.
func settle(s Registered, gasReserve *big.Int, to *address.Address, comment string, action models.CheckAction) decision {
	if s.Balance == nil || s.Balance.Sign() == 0 {
		return decision{Result: models.Pending("escrow already empty")}
	}
	transferable := new(big.Int).Sub(s.Balance, gasReserve)
	if transferable.Sign() <= 0 {
		return decision{Result: models.Pending("insufficient balance")}
	}
	return decision{Plan: &transferPlan{
		To:      to,
		Amount:  transferable,
		Comment: comment,
		Action:  action,
	}}
}
