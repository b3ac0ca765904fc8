package registry

import (
	"fmt"

	"ad-escrow-backend/internal/features/escrow/models"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// OpCreateDeal is the operation tag of the registry contract's create-deal
// handler.
const OpCreateDeal = 0x2e4a1b7d

// EncodeCreateDeal builds the internal-message body that asks the registry
// to record a deal. Party addresses, amount and posting time travel in a
// nested record because the fixed-width fields fill most of the root cell.
func EncodeCreateDeal(p *models.DealParams) *cell.Cell {
	parties := cell.BeginCell().
		MustStoreAddr(p.Publisher).
		MustStoreAddr(p.Advertiser).
		MustStoreBigCoins(p.Amount).
		MustStoreUInt(uint64(p.PostedAt), 32).
		EndCell()

	return cell.BeginCell().
		MustStoreUInt(OpCreateDeal, 32).
		MustStoreUInt(p.DealID, 64).
		MustStoreInt(p.ChannelID, 64).
		MustStoreInt(int64(p.PostID), 64).
		MustStoreSlice(p.ContentHash[:], 256).
		MustStoreUInt(uint64(p.Duration), 32).
		MustStoreRef(parties).
		EndCell()
}

// DecodeDeal parses the record cell returned by the get_deal getter.
// The layout mirrors the create-deal body without the op tag and deal id,
// with the contract's creation timestamp appended to the nested record.
func DecodeDeal(c *cell.Cell) (*models.StoredDeal, error) {
	s := c.BeginParse()

	channelID, err := s.LoadInt(64)
	if err != nil {
		return nil, fmt.Errorf("channel id: %w", err)
	}
	postID, err := s.LoadInt(64)
	if err != nil {
		return nil, fmt.Errorf("post id: %w", err)
	}
	hashBits, err := s.LoadSlice(256)
	if err != nil {
		return nil, fmt.Errorf("content hash: %w", err)
	}
	duration, err := s.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("duration: %w", err)
	}
	parties, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("parties record: %w", err)
	}

	publisher, err := parties.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("publisher: %w", err)
	}
	advertiser, err := parties.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("advertiser: %w", err)
	}
	amount, err := parties.LoadBigCoins()
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	postedAt, err := parties.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("posted at: %w", err)
	}
	createdAt, err := parties.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("created at: %w", err)
	}

	deal := &models.StoredDeal{
		ChannelID:  channelID,
		PostID:     uint64(postID),
		Duration:   uint32(duration),
		Publisher:  publisher,
		Advertiser: advertiser,
		Amount:     amount,
		PostedAt:   int64(postedAt),
		CreatedAt:  int64(createdAt),
	}
	copy(deal.ContentHash[:], hashBits)
	return deal, nil
}

// EncodeDealRecord is the inverse of DecodeDeal. The contract produces
// these cells on chain; the codec builds them for tests and for the
// read-through cache.
func EncodeDealRecord(d *models.StoredDeal) *cell.Cell {
	parties := cell.BeginCell().
		MustStoreAddr(d.Publisher).
		MustStoreAddr(d.Advertiser).
		MustStoreBigCoins(d.Amount).
		MustStoreUInt(uint64(d.PostedAt), 32).
		MustStoreUInt(uint64(d.CreatedAt), 32).
		EndCell()

	return cell.BeginCell().
		MustStoreInt(d.ChannelID, 64).
		MustStoreInt(int64(d.PostID), 64).
		MustStoreSlice(d.ContentHash[:], 256).
		MustStoreUInt(uint64(d.Duration), 32).
		MustStoreRef(parties).
		EndCell()
}
