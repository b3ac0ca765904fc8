package registry

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math/big"
	"testing"

	"ad-escrow-backend/internal/features/escrow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// testRegistryAddr is any syntactically valid friendly address; the fake
// chain never contacts it.
var testRegistryAddr = address.NewAddress(0, 0, bytes.Repeat([]byte{0x7f}, 32))

type fakeChain struct {
	getterResult *ton.ExecutionResult
	getterErr    error
	lastMethod   string
	lastParams   []any

	sentTo     *address.Address
	sentAmount *big.Int
	sentBody   *cell.Cell
	sendErr    error
}

func (f *fakeChain) RunGetter(_ context.Context, _ *address.Address, method string, params ...any) (*ton.ExecutionResult, error) {
	f.lastMethod = method
	f.lastParams = params
	if f.getterErr != nil {
		return nil, f.getterErr
	}
	return f.getterResult, nil
}

func (f *fakeChain) SendMessage(_ context.Context, _ ed25519.PrivateKey, to *address.Address, amount *big.Int, body *cell.Cell) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sentTo = to
	f.sentAmount = amount
	f.sentBody = body
	return "tx-register", nil
}

func testStoredDeal() *models.StoredDeal {
	d := &models.StoredDeal{
		ChannelID:  -1001234567890,
		PostID:     117,
		Duration:   86400,
		Publisher:  address.NewAddress(0, 0, bytes.Repeat([]byte{0x02}, 32)),
		Advertiser: address.NewAddress(0, 0, bytes.Repeat([]byte{0x03}, 32)),
		Amount:     big.NewInt(1_000_000_000),
		PostedAt:   1_700_000_000,
		CreatedAt:  1_700_000_100,
	}
	copy(d.ContentHash[:], bytes.Repeat([]byte{0xAA}, 32))
	return d
}

func newTestClient(t *testing.T, chain Chain) *Client {
	t.Helper()
	c, err := New(chain, testRegistryAddr.String(), nil)
	require.NoError(t, err)
	return c
}

func TestDealDecodesGetterRecord(t *testing.T) {
	want := testStoredDeal()
	chain := &fakeChain{getterResult: ton.NewExecutionResult([]any{EncodeDealRecord(want)})}
	c := newTestClient(t, chain)

	got, err := c.Deal(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "get_deal", chain.lastMethod)
	require.Len(t, chain.lastParams, 1)
	assert.Zero(t, chain.lastParams[0].(*big.Int).Cmp(big.NewInt(7)))

	assert.Equal(t, want.ChannelID, got.ChannelID)
	assert.Equal(t, want.PostID, got.PostID)
	assert.Equal(t, want.ContentHash, got.ContentHash)
	assert.Equal(t, want.Publisher.String(), got.Publisher.String())
	assert.Equal(t, want.Advertiser.String(), got.Advertiser.String())
	assert.Zero(t, want.Amount.Cmp(got.Amount))
	assert.Equal(t, want.PostedAt, got.PostedAt)
	assert.Equal(t, want.CreatedAt, got.CreatedAt)
}

func TestDealNotFoundOnExecError(t *testing.T) {
	// The getter throws when the id has no record; that is the routine
	// unregistered case, not a chain failure.
	chain := &fakeChain{getterErr: ton.ContractExecError{Code: 9}}
	c := newTestClient(t, chain)

	_, err := c.Deal(context.Background(), 7)
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestDealNotFoundOnUndecodableRecord(t *testing.T) {
	garbage := cell.BeginCell().MustStoreUInt(1, 8).EndCell()
	chain := &fakeChain{getterResult: ton.NewExecutionResult([]any{garbage})}
	c := newTestClient(t, chain)

	_, err := c.Deal(context.Background(), 7)
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestDealPropagatesChainFailure(t *testing.T) {
	chain := &fakeChain{getterErr: assert.AnError}
	c := newTestClient(t, chain)

	_, err := c.Deal(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDealNotFound)
}

func TestExists(t *testing.T) {
	chain := &fakeChain{getterResult: ton.NewExecutionResult([]any{big.NewInt(-1)})}
	c := newTestClient(t, chain)

	ok, err := c.Exists(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "deal_exists", chain.lastMethod)

	chain.getterResult = ton.NewExecutionResult([]any{big.NewInt(0)})
	ok, err = c.Exists(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNextID(t *testing.T) {
	chain := &fakeChain{getterResult: ton.NewExecutionResult([]any{big.NewInt(42)})}
	c := newTestClient(t, chain)

	id, err := c.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "get_next_deal_id", chain.lastMethod)
}

func TestRegisterSendsCreateDealBody(t *testing.T) {
	chain := &fakeChain{}
	c := newTestClient(t, chain)

	stored := testStoredDeal()
	params := &models.DealParams{
		DealID:      7,
		ChannelID:   stored.ChannelID,
		PostID:      stored.PostID,
		ContentHash: stored.ContentHash,
		Duration:    stored.Duration,
		Publisher:   stored.Publisher,
		Advertiser:  stored.Advertiser,
		Amount:      stored.Amount,
		PostedAt:    stored.PostedAt,
	}

	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	txRef, err := c.Register(context.Background(), priv, params)
	require.NoError(t, err)
	assert.Equal(t, "tx-register", txRef)
	assert.Equal(t, testRegistryAddr.String(), chain.sentTo.String())
	assert.Zero(t, chain.sentAmount.Cmp(registerGas))
	require.NotNil(t, chain.sentBody)
	assert.Equal(t, EncodeCreateDeal(params).Hash(), chain.sentBody.Hash())
}
