package ton

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ad-escrow-backend/internal/common/logger"

	"github.com/rs/zerolog"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

const (
	// depositPageSize matches the liteserver's comfortable history page; the
	// cap bounds how far back the deposit scan is willing to walk before
	// giving up conservatively.
	depositPageSize = 10
	depositMaxPages = 50
)

var (
	// ErrNoHistory means the account has no transactions yet.
	ErrNoHistory = errors.New("account has no transaction history")
	// ErrHistoryTooDeep means the deposit scan hit its page cap before
	// reaching the account's first transaction.
	ErrHistoryTooDeep = errors.New("transaction history too deep to scan")
)

// Deposit is an incoming transfer observed on an escrow wallet.
type Deposit struct {
	From   *address.Address
	Amount *big.Int
	At     time.Time
	LT     uint64
}

// Client wraps liteserver RPC with the retry policy. It keeps no mutable
// state of its own; wallet seqnos live on chain and serialize concurrent
// sends per wallet.
type Client struct {
	api   ton.APIClientWrapped
	retry RetryPolicy
	log   zerolog.Logger
}

// Connect dials the liteserver pool described by the global config URL.
func Connect(ctx context.Context, configURL string, retry RetryPolicy) (*Client, error) {
	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
		return nil, fmt.Errorf("connect liteservers: %w", err)
	}

	api := ton.NewAPIClient(pool).WithRetry()
	return &Client{
		api:   api,
		retry: retry,
		log:   logger.With("ton"),
	}, nil
}

// NewClientWithAPI wires an existing API client, used by tests.
func NewClientWithAPI(api ton.APIClientWrapped, retry RetryPolicy) *Client {
	return &Client{api: api, retry: retry, log: logger.With("ton")}
}

// Balance returns the account balance in nanoTON. Uninitialized and
// nonexistent accounts read as zero.
func (c *Client) Balance(ctx context.Context, addr *address.Address) (*big.Int, error) {
	var balance *big.Int
	err := c.retry.Do(ctx, "get_balance", func() error {
		acc, err := c.account(ctx, addr)
		if err != nil {
			return err
		}
		if acc.State == nil {
			balance = big.NewInt(0)
			return nil
		}
		balance = acc.State.Balance.Nano()
		return nil
	})
	return balance, err
}

// FirstIncomingTransfer locates the earliest incoming internal transfer on
// the account, i.e. the deposit, by paging backward from the last transaction
// to the account's first one. Returns ErrNoHistory when the account has no
// transactions and ErrHistoryTooDeep when the scan cap is reached before
// history is exhausted.
func (c *Client) FirstIncomingTransfer(ctx context.Context, addr *address.Address) (*Deposit, error) {
	var deposit *Deposit
	err := c.retry.Do(ctx, "first_incoming_transfer", func() error {
		acc, err := c.account(ctx, addr)
		if err != nil {
			return err
		}
		if acc.LastTxLT == 0 {
			return ErrNoHistory
		}

		lt, hash := acc.LastTxLT, acc.LastTxHash
		var earliest *Deposit
		for page := 0; page < depositMaxPages; page++ {
			txs, err := c.api.ListTransactions(ctx, addr, depositPageSize, lt, hash)
			if err != nil {
				return fmt.Errorf("list transactions: %w", err)
			}
			if len(txs) == 0 {
				deposit = earliest
				return nil
			}

			oldest := txs[0]
			for _, tx := range txs {
				if tx.LT < oldest.LT {
					oldest = tx
				}
				if d := incomingTransfer(tx); d != nil {
					if earliest == nil || d.LT < earliest.LT {
						earliest = d
					}
				}
			}

			if oldest.PrevTxLT == 0 {
				// Reached the account's first transaction.
				deposit = earliest
				return nil
			}
			lt, hash = oldest.PrevTxLT, oldest.PrevTxHash
		}
		return ErrHistoryTooDeep
	})
	if err != nil {
		return nil, err
	}
	if deposit == nil {
		return nil, ErrNoHistory
	}
	return deposit, nil
}

func incomingTransfer(tx *tlb.Transaction) *Deposit {
	if tx.IO.In == nil || tx.IO.In.MsgType != tlb.MsgTypeInternal {
		return nil
	}
	in := tx.IO.In.AsInternal()
	if in.SrcAddr == nil || in.Amount.Nano().Sign() <= 0 {
		return nil
	}
	return &Deposit{
		From:   in.SrcAddr,
		Amount: in.Amount.Nano(),
		At:     time.Unix(int64(tx.Now), 0),
		LT:     tx.LT,
	}
}

// RunGetter executes a get method on a contract at the latest masterchain
// block.
func (c *Client) RunGetter(ctx context.Context, addr *address.Address, method string, params ...any) (*ton.ExecutionResult, error) {
	var result *ton.ExecutionResult
	err := c.retry.Do(ctx, "run_getter "+method, func() error {
		block, err := c.api.CurrentMasterchainInfo(ctx)
		if err != nil {
			return fmt.Errorf("masterchain info: %w", err)
		}
		res, err := c.api.RunGetMethod(ctx, block, addr, method, params...)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// SendMessage sends an internal message carrying body from the wallet owned
// by key and waits for the transaction to be accepted. The returned
// reference identifies the submitted transaction, not a finalized
// settlement. Callers observe eventual state via getters.
func (c *Client) SendMessage(ctx context.Context, key ed25519.PrivateKey, to *address.Address, amount *big.Int, body *cell.Cell) (string, error) {
	return c.send(ctx, key, wallet.SimpleMessage(to, tlb.FromNanoTON(amount), body))
}

// Transfer moves amount from the wallet owned by key, attaching a plain
// text comment.
func (c *Client) Transfer(ctx context.Context, key ed25519.PrivateKey, to *address.Address, amount *big.Int, comment string) (string, error) {
	body, err := wallet.CreateCommentCell(comment)
	if err != nil {
		return "", fmt.Errorf("build comment: %w", err)
	}
	return c.send(ctx, key, wallet.SimpleMessage(to, tlb.FromNanoTON(amount), body))
}

func (c *Client) send(ctx context.Context, key ed25519.PrivateKey, msg *wallet.Message) (string, error) {
	w, err := wallet.FromPrivateKey(c.api, key, wallet.V4R2)
	if err != nil {
		return "", fmt.Errorf("open wallet: %w", err)
	}

	var txRef string
	// The wallet seqno is fetched fresh inside every send attempt; the chain
	// rejects a stale one, which is what makes a concurrent duplicate send a
	// no-op instead of a double spend.
	err = c.retry.Do(ctx, "send_message", func() error {
		tx, _, err := w.SendWaitTransaction(ctx, msg)
		if err != nil {
			return err
		}
		txRef = base64.StdEncoding.EncodeToString(tx.Hash)
		return nil
	})
	if err != nil {
		return "", err
	}

	c.log.Info().
		Str("from", w.WalletAddress().String()).
		Str("tx_ref", txRef).
		Msg("Message sent")
	return txRef, nil
}

func (c *Client) account(ctx context.Context, addr *address.Address) (*tlb.Account, error) {
	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("masterchain info: %w", err)
	}
	acc, err := c.api.GetAccount(ctx, block, addr)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acc, nil
}
