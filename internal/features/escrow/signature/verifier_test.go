package signature

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math/big"
	"testing"

	"ad-escrow-backend/internal/features/escrow/keys"
	"ad-escrow-backend/internal/features/escrow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signer struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newSigner(t *testing.T) signer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return signer{pub: pub, priv: priv}
}

// sign produces what a compliant TonConnect wallet would: an ed25519
// signature over the hash of the reconstructed envelope.
func (s signer) sign(t *testing.T, params *models.DealParams, timestamp int64, domain string) *models.PartySignMeta {
	t.Helper()
	addr, err := keys.AddressOfPubKey(s.pub)
	require.NoError(t, err)
	envelope := EnvelopeCell(params, addr, timestamp, domain)
	return &models.PartySignMeta{
		Signature: ed25519.Sign(s.priv, envelope.Hash()),
		PublicKey: s.pub,
		Timestamp: timestamp,
		Domain:    domain,
	}
}

func testParams(t *testing.T, publisher, advertiser signer) *models.DealParams {
	t.Helper()
	pubAddr, err := keys.AddressOfPubKey(publisher.pub)
	require.NoError(t, err)
	advAddr, err := keys.AddressOfPubKey(advertiser.pub)
	require.NoError(t, err)

	return &models.DealParams{
		DealID:      42,
		ChannelID:   -1001234567890,
		PostID:      117,
		ContentHash: sha256.Sum256([]byte("ad post text")),
		Duration:    86400,
		Publisher:   pubAddr,
		Advertiser:  advAddr,
		Amount:      big.NewInt(1_500_000_000),
		PostedAt:    1_700_000_000,
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	publisher, advertiser := newSigner(t), newSigner(t)
	params := testParams(t, publisher, advertiser)

	meta := publisher.sign(t, params, 1_700_000_100, "marketplace.example.com")
	assert.NoError(t, NewVerifier().Verify(params, meta, params.Publisher))
}

func TestVerifyDetectsTampering(t *testing.T) {
	publisher, advertiser := newSigner(t), newSigner(t)
	params := testParams(t, publisher, advertiser)
	v := NewVerifier()

	tests := []struct {
		name   string
		mutate func(meta *models.PartySignMeta)
	}{
		{"flipped signature byte", func(m *models.PartySignMeta) { m.Signature[17] ^= 0x01 }},
		{"changed timestamp", func(m *models.PartySignMeta) { m.Timestamp++ }},
		{"changed domain", func(m *models.PartySignMeta) { m.Domain = "evil.example.com" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := publisher.sign(t, params, 1_700_000_100, "marketplace.example.com")
			tt.mutate(meta)
			assert.ErrorIs(t, v.Verify(params, meta, params.Publisher), ErrSignatureMismatch)
		})
	}
}

func TestVerifyDetectsChangedTerms(t *testing.T) {
	publisher, advertiser := newSigner(t), newSigner(t)
	params := testParams(t, publisher, advertiser)
	meta := publisher.sign(t, params, 1_700_000_100, "marketplace.example.com")

	// The signature was produced over a different amount than presented.
	presented := *params
	presented.Amount = big.NewInt(1)
	assert.ErrorIs(t, NewVerifier().Verify(&presented, meta, presented.Publisher), ErrSignatureMismatch)
}

func TestVerifyBindsKeyToAddress(t *testing.T) {
	publisher, advertiser := newSigner(t), newSigner(t)
	params := testParams(t, publisher, advertiser)

	// Mathematically valid signature, but the key does not control the
	// expected wallet.
	meta := advertiser.sign(t, params, 1_700_000_100, "marketplace.example.com")
	assert.ErrorIs(t, NewVerifier().Verify(params, meta, params.Publisher), ErrAddressMismatch)
}

func TestVerifyRejectsFlippedPublicKey(t *testing.T) {
	publisher, advertiser := newSigner(t), newSigner(t)
	params := testParams(t, publisher, advertiser)

	meta := publisher.sign(t, params, 1_700_000_100, "marketplace.example.com")
	meta.PublicKey = append(ed25519.PublicKey{}, meta.PublicKey...)
	meta.PublicKey[5] ^= 0x01

	// A different key implies a different wallet address.
	assert.Error(t, NewVerifier().Verify(params, meta, params.Publisher))
}

func TestPayloadExcludesPostIDAndPostedAt(t *testing.T) {
	publisher, advertiser := newSigner(t), newSigner(t)
	params := testParams(t, publisher, advertiser)

	other := *params
	other.PostID = params.PostID + 99
	other.PostedAt = params.PostedAt + 3600

	// Both parties sign before the post exists, so the payload must be
	// identical regardless of post id and posting time.
	assert.Equal(t, PayloadCell(params).Hash(), PayloadCell(&other).Hash())
}

func TestEnvelopeDiffersPerSigner(t *testing.T) {
	publisher, advertiser := newSigner(t), newSigner(t)
	params := testParams(t, publisher, advertiser)

	a := EnvelopeCell(params, params.Publisher, 1, "d")
	b := EnvelopeCell(params, params.Advertiser, 1, "d")
	assert.NotEqual(t, a.Hash(), b.Hash())
}
