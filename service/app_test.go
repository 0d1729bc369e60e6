package service_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quorumnet/partyd/chainclient"
	"github.com/quorumnet/partyd/config"
	"github.com/quorumnet/partyd/service"
	"github.com/quorumnet/partyd/store/bbolt"
	"github.com/quorumnet/partyd/testutil"
	"github.com/quorumnet/partyd/types"
)

func TestNewAppRejectsIncompleteDependencies(t *testing.T) {
	r := rand.New(rand.NewSource(60))
	db, err := bbolt.NewBboltStore(bbolt.Options{
		Path: testutil.RandomFilePath(r, t, "partyd.db"),
	})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	cfg := config.DefaultConfigWithHome(t.TempDir())
	selfKey := testutil.GenRandomPublicKey(r)

	_, err = service.NewApp(&cfg, &service.Dependencies{}, db, zap.NewNop())
	require.Error(t, err)

	// A self key outside the membership is rejected.
	_, err = service.NewApp(&cfg, &service.Dependencies{
		Resources: chainclient.Disabled{},
		Peers:     chainclient.DisabledPeers{},
		Ledger:    chainclient.DisabledLedger{},
		SelfKey:   selfKey,
		Members:   []types.PublicKey{testutil.GenRandomPublicKey(r)},
	}, db, zap.NewNop())
	require.Error(t, err)

	app, err := service.NewApp(&cfg, &service.Dependencies{
		Resources: chainclient.Disabled{},
		Peers:     chainclient.DisabledPeers{},
		Ledger:    chainclient.DisabledLedger{},
		SelfKey:   selfKey,
		Members:   []types.PublicKey{selfKey},
	}, db, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, app.GetPartyStore())
}
