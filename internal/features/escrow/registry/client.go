package registry

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ad-escrow-backend/internal/common/logger"
	"ad-escrow-backend/internal/features/escrow/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// registerGas is the fixed allowance attached to a create-deal message; it
// pays contract execution, the change bounces back to the admin wallet.
var registerGas = big.NewInt(50_000_000) // 0.05 TON

// Registered records are immutable, the TTL only bounds cache size.
const cacheTTL = 24 * time.Hour

// ErrDealNotFound covers the routine case of a deal id with no on-chain
// record yet. Malformed getter results map here as well, never to a fatal
// error.
var ErrDealNotFound = errors.New("deal not found in registry")

// Chain is the slice of the chain client the registry needs.
type Chain interface {
	RunGetter(ctx context.Context, addr *address.Address, method string, params ...any) (*ton.ExecutionResult, error)
	SendMessage(ctx context.Context, key ed25519.PrivateKey, to *address.Address, amount *big.Int, body *cell.Cell) (string, error)
}

// Client reads and writes the on-chain deal registry. A Redis client, when
// present, acts as a read-through cache for registered records only. An
// absent deal is always re-checked on chain, so the cache can never mask a
// fresh registration.
type Client struct {
	chain Chain
	addr  *address.Address
	cache *redis.Client
	log   zerolog.Logger
}

func New(chain Chain, registryAddr string, cache *redis.Client) (*Client, error) {
	addr, err := address.ParseAddr(registryAddr)
	if err != nil {
		return nil, fmt.Errorf("parse registry address %q: %w", registryAddr, err)
	}
	return &Client{
		chain: chain,
		addr:  addr,
		cache: cache,
		log:   logger.With("registry"),
	}, nil
}

// Deal fetches the stored record for dealID, or ErrDealNotFound.
func (c *Client) Deal(ctx context.Context, dealID uint64) (*models.StoredDeal, error) {
	if deal := c.cached(ctx, dealID); deal != nil {
		return deal, nil
	}

	res, err := c.chain.RunGetter(ctx, c.addr, "get_deal", new(big.Int).SetUint64(dealID))
	if err != nil {
		if isExecError(err) {
			return nil, ErrDealNotFound
		}
		return nil, err
	}

	record, err := res.Cell(0)
	if err != nil {
		return nil, ErrDealNotFound
	}
	deal, err := DecodeDeal(record)
	if err != nil {
		c.log.Debug().Uint64("deal_id", dealID).Err(err).Msg("Undecodable deal record, treating as not found")
		return nil, ErrDealNotFound
	}

	c.store(ctx, dealID, record)
	return deal, nil
}

// Exists asks the registry whether dealID has a record.
func (c *Client) Exists(ctx context.Context, dealID uint64) (bool, error) {
	res, err := c.chain.RunGetter(ctx, c.addr, "deal_exists", new(big.Int).SetUint64(dealID))
	if err != nil {
		if isExecError(err) {
			return false, nil
		}
		return false, err
	}
	flag, err := res.Int(0)
	if err != nil {
		return false, nil
	}
	return flag.Sign() != 0, nil
}

// NextID returns the first unassigned deal id.
func (c *Client) NextID(ctx context.Context) (uint64, error) {
	res, err := c.chain.RunGetter(ctx, c.addr, "get_next_deal_id")
	if err != nil {
		return 0, err
	}
	id, err := res.Int(0)
	if err != nil {
		return 0, fmt.Errorf("unexpected next-id stack: %w", err)
	}
	return id.Uint64(), nil
}

// Register submits the create-deal message signed by the admin wallet. The
// registry contract itself rejects duplicate deal ids and non-admin
// senders. The returned reference means submitted, not finalized.
func (c *Client) Register(ctx context.Context, adminKey ed25519.PrivateKey, params *models.DealParams) (string, error) {
	body := EncodeCreateDeal(params)
	txRef, err := c.chain.SendMessage(ctx, adminKey, c.addr, registerGas, body)
	if err != nil {
		return "", err
	}
	c.log.Info().
		Uint64("deal_id", params.DealID).
		Str("tx_ref", txRef).
		Msg("Deal registration submitted")
	return txRef, nil
}

func (c *Client) cached(ctx context.Context, dealID uint64) *models.StoredDeal {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, cacheKey(dealID)).Bytes()
	if err != nil {
		return nil
	}
	record, err := cell.FromBOC(raw)
	if err != nil {
		return nil
	}
	deal, err := DecodeDeal(record)
	if err != nil {
		return nil
	}
	return deal
}

func (c *Client) store(ctx context.Context, dealID uint64, record *cell.Cell) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey(dealID), record.ToBOC(), cacheTTL).Err(); err != nil {
		c.log.Debug().Uint64("deal_id", dealID).Err(err).Msg("Deal cache write failed")
	}
}

func cacheKey(dealID uint64) string {
	return fmt.Sprintf("escrow:deal:%d", dealID)
}

func isExecError(err error) bool {
	var execErr ton.ContractExecError
	return errors.As(err, &execErr)
}
