package keys

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
)

// SLIP-0010 hierarchical derivation for ed25519. Implemented here because
// the btcd hdkeychain stack is secp256k1-only; the ed25519 scheme allows
// hardened children exclusively, which is all the wallet tree needs.

const hardenedOffset = 0x80000000

var ed25519Curve = []byte("ed25519 seed")

type extendedKey struct {
	key   []byte // 32 bytes, ed25519 seed material
	chain []byte // 32 bytes
}

func masterKey(seed []byte) extendedKey {
	mac := hmac.New(sha512.New, ed25519Curve)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return extendedKey{key: sum[:32], chain: sum[32:]}
}

func (k extendedKey) child(index uint32) extendedKey {
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, k.key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, k.chain)
	mac.Write(data)
	sum := mac.Sum(nil)
	return extendedKey{key: sum[:32], chain: sum[32:]}
}

// deriveEd25519 walks the given path with every component hardened and
// returns the 32-byte ed25519 seed at the leaf.
func deriveEd25519(seed []byte, path []uint32) ([]byte, error) {
	if len(seed) < 16 {
		return nil, fmt.Errorf("seed too short: %d bytes", len(seed))
	}
	k := masterKey(seed)
	for _, component := range path {
		if component >= hardenedOffset {
			return nil, fmt.Errorf("path component %d already hardened", component)
		}
		k = k.child(component + hardenedOffset)
	}
	return k.key, nil
}
