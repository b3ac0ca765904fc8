package service

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"ad-escrow-backend/internal/features/escrow/models"
	tonplatform "ad-escrow-backend/internal/platform/ton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
)

var (
	testGasReserve = big.NewInt(50_000_000)
	testNow        = time.Unix(1_700_000_000, 0)

	depositorAddr  = address.NewAddress(0, 0, bytes.Repeat([]byte{0x01}, 32))
	publisherAddr  = address.NewAddress(0, 0, bytes.Repeat([]byte{0x02}, 32))
	advertiserAddr = address.NewAddress(0, 0, bytes.Repeat([]byte{0x03}, 32))
)

func storedDeal(postedAt int64, duration uint32) *models.StoredDeal {
	return &models.StoredDeal{
		ChannelID:  -1001234567890,
		PostID:     117,
		Duration:   duration,
		Publisher:  publisherAddr,
		Advertiser: advertiserAddr,
		Amount:     big.NewInt(1_000_000_000),
		PostedAt:   postedAt,
		CreatedAt:  postedAt,
	}
}

func TestDecideUnregisteredNoFunds(t *testing.T) {
	d := decide(Unregistered{Balance: big.NewInt(0)}, testNow, testGasReserve, depositTimeout)
	require.NotNil(t, d.Result)
	assert.Equal(t, models.ActionPending, d.Result.Action)
	assert.Equal(t, "no funds in escrow", d.Result.Reason)
}

func TestDecideUnregisteredUnreadableHistory(t *testing.T) {
	d := decide(Unregistered{Balance: big.NewInt(500), HistoryUnreadable: true}, testNow, testGasReserve, depositTimeout)
	require.NotNil(t, d.Result)
	assert.Equal(t, "could not read deposit history", d.Result.Reason)
}

func TestDecideUnregisteredUnknownDepositor(t *testing.T) {
	d := decide(Unregistered{Balance: big.NewInt(500)}, testNow, testGasReserve, depositTimeout)
	require.NotNil(t, d.Result)
	assert.Equal(t, "cannot determine depositor", d.Result.Reason)
}

func TestDecideUnregisteredTimeoutGating(t *testing.T) {
	deposit := &tonplatform.Deposit{
		From:   depositorAddr,
		Amount: big.NewInt(1_000_000_000),
		At:     testNow.Add(-11 * time.Hour),
	}

	// Before the 12h mark: wait.
	d := decide(Unregistered{Balance: big.NewInt(1_000_000_000), Deposit: deposit}, testNow, testGasReserve, depositTimeout)
	require.NotNil(t, d.Result)
	assert.Equal(t, models.ActionPending, d.Result.Action)
	assert.Contains(t, d.Result.Reason, "refund available in")

	// Past the 12h mark: refund the depositor, minus the gas reserve.
	deposit.At = testNow.Add(-12 * time.Hour)
	d = decide(Unregistered{Balance: big.NewInt(1_000_000_000), Deposit: deposit}, testNow, testGasReserve, depositTimeout)
	require.NotNil(t, d.Plan)
	assert.Equal(t, models.ActionRefunded, d.Plan.Action)
	assert.Equal(t, depositorAddr.String(), d.Plan.To.String())
	assert.Zero(t, d.Plan.Amount.Cmp(big.NewInt(950_000_000)))
}

func TestDecideUnregisteredBalanceBelowReserve(t *testing.T) {
	deposit := &tonplatform.Deposit{
		From: depositorAddr,
		At:   testNow.Add(-13 * time.Hour),
	}
	d := decide(Unregistered{Balance: big.NewInt(10_000_000), Deposit: deposit}, testNow, testGasReserve, depositTimeout)
	require.NotNil(t, d.Result)
	assert.Equal(t, "insufficient balance", d.Result.Reason)
}

func TestDecideRegisteredDurationNotPassed(t *testing.T) {
	deal := storedDeal(testNow.Unix()-1000, 86400)
	d := decide(Registered{Deal: deal, Content: models.PostValid, Balance: big.NewInt(1_000_000_000)}, testNow, testGasReserve, depositTimeout)
	require.NotNil(t, d.Result)
	assert.Equal(t, models.ActionPending, d.Result.Action)
	assert.Contains(t, d.Result.Reason, "Duration not passed. 85400s remaining.")
}

func TestDecideRegisteredRelease(t *testing.T) {
	deal := storedDeal(testNow.Unix()-90000, 86400)
	d := decide(Registered{Deal: deal, Content: models.PostValid, Balance: big.NewInt(1_000_000_000)}, testNow, testGasReserve, depositTimeout)
	require.NotNil(t, d.Plan)
	assert.Equal(t, models.ActionReleased, d.Plan.Action)
	assert.Equal(t, publisherAddr.String(), d.Plan.To.String())
	assert.Zero(t, d.Plan.Amount.Cmp(big.NewInt(950_000_000)))
}

func TestDecideRegisteredRefundOnDeletedOrModified(t *testing.T) {
	deal := storedDeal(testNow.Unix()-1000, 86400)
	for _, status := range []models.PostStatus{models.PostDeleted, models.PostModified} {
		d := decide(Registered{Deal: deal, Content: status, Balance: big.NewInt(1_000_000_000)}, testNow, testGasReserve, depositTimeout)
		require.NotNil(t, d.Plan, "status %s", status)
		assert.Equal(t, models.ActionRefunded, d.Plan.Action)
		assert.Equal(t, advertiserAddr.String(), d.Plan.To.String())
	}
}

func TestDecideRegisteredAlreadyEmpty(t *testing.T) {
	deal := storedDeal(testNow.Unix()-90000, 86400)

	// A deal settled by an earlier check: the wallet is drained and no
	// second transfer must ever be planned.
	for _, status := range []models.PostStatus{models.PostValid, models.PostDeleted} {
		d := decide(Registered{Deal: deal, Content: status, Balance: big.NewInt(0)}, testNow, testGasReserve, depositTimeout)
		require.NotNil(t, d.Result, "status %s", status)
		assert.Equal(t, models.ActionPending, d.Result.Action)
		assert.Equal(t, "escrow already empty", d.Result.Reason)
	}
}
