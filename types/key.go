package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
)

// PublicKey is a compressed secp256k1 public key identifying a peer node.
type PublicKey []byte

func NewPublicKeyFromHex(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid public key hex: %w", err)
	}
	if _, err := btcec.ParsePubKey(b); err != nil {
		return nil, fmt.Errorf("invalid secp256k1 public key: %w", err)
	}
	return PublicKey(b), nil
}

func NewPublicKeyFromBTCPK(pk *btcec.PublicKey) PublicKey {
	return PublicKey(pk.SerializeCompressed())
}

func (p PublicKey) Hex() string {
	return hex.EncodeToString(p)
}

func (p PublicKey) Equal(o PublicKey) bool {
	return bytes.Equal(p, o)
}

// SortPublicKeys orders keys by their byte representation so every party
// member derives the same membership ordering independently.
func SortPublicKeys(keys []PublicKey) []PublicKey {
	sorted := make([]PublicKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// ContainsKey reports membership of k in keys.
func ContainsKey(keys []PublicKey, k PublicKey) bool {
	for _, e := range keys {
		if e.Equal(k) {
			return true
		}
	}
	return false
}
