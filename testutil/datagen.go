package testutil

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/quorumnet/partyd/types"
)

func AddRandomSeedsToFuzzer(f *testing.F, num uint) {
	// Seed based on the current time
	r := rand.New(rand.NewSource(time.Now().Unix()))
	var idx uint
	for idx = 0; idx < num; idx++ {
		f.Add(r.Int63())
	}
}

func GenRandomByteArray(r *rand.Rand, length uint64) []byte {
	newHeaderBytes := make([]byte, length)
	r.Read(newHeaderBytes)
	return newHeaderBytes
}

func GenRandomHexStr(r *rand.Rand, length uint64) string {
	randBytes := GenRandomByteArray(r, length)
	return hex.EncodeToString(randBytes)
}

func GenRandomPublicKey(r *rand.Rand) types.PublicKey {
	privKey, err := btcec.NewPrivateKey()
	if err != nil {
		panic(err)
	}
	return types.NewPublicKeyFromBTCPK(privKey.PubKey())
}

// GenRandomAddress builds a syntactically plausible address for the currency.
// These are not validated against real chain encodings; tests that need a
// decodable Bitcoin address construct one from chaincfg parameters directly.
func GenRandomAddress(r *rand.Rand, c types.Currency) types.Address {
	switch c {
	case types.CurrencyEthereum:
		return types.NewAddress(c, "0x"+GenRandomHexStr(r, 20))
	case types.CurrencyMonero:
		return types.NewAddress(c, "4"+GenRandomHexStr(r, 47))
	case types.CurrencySolana:
		return types.NewAddress(c, GenRandomHexStr(r, 20))
	default:
		return types.NewAddress(c, GenRandomHexStr(r, 20))
	}
}

func GenRandomAmount(r *rand.Rand, c types.Currency) types.Amount {
	return types.FromInt64(r.Int63n(1_000_000_000)+1, c)
}

func GenRandomExternalTx(r *rand.Rand, c types.Currency, incoming bool) *types.ExternalTimedTransaction {
	other := GenRandomAddress(r, c)
	return &types.ExternalTimedTransaction{
		TxID:         GenRandomHexStr(r, 32),
		Timestamp:    time.Now().UnixMilli(),
		Currency:     c,
		OtherAddress: other.Render,
		Amount:       GenRandomAmount(r, c),
		Incoming:     incoming,
	}
}

func GenRandomLedgerTx(r *rand.Rand, outputs ...types.LedgerOutput) *types.LedgerTransaction {
	return &types.LedgerTransaction{
		Hash:    GenRandomHexStr(r, 32),
		Time:    time.Now().UnixMilli(),
		Outputs: outputs,
	}
}

func GenRandomUtxoID(r *rand.Rand) types.UtxoID {
	return types.UtxoID{TxHash: GenRandomHexStr(r, 32), Index: r.Int31n(8)}
}

// RandomFilePath returns a unique path under the test temp dir.
func RandomFilePath(r *rand.Rand, t *testing.T, name string) string {
	return fmt.Sprintf("%s/%s-%d", t.TempDir(), name, r.Int63())
}
