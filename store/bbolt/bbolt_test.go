package bbolt_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	kvstore "github.com/quorumnet/partyd/store"
	bolt "github.com/quorumnet/partyd/store/bbolt"
	"github.com/quorumnet/partyd/testutil"
)

func createStore(r *rand.Rand, t *testing.T) bolt.BboltStore {
	s, err := bolt.NewBboltStore(bolt.Options{
		Path:       testutil.RandomFilePath(r, t, "bbolt.db"),
		BucketName: testutil.GenRandomHexStr(r, 8),
	})
	require.NoError(t, err)
	return s
}

func genRandomKVList(num int, r *rand.Rand) []*kvstore.KVPair {
	kvList := make([]*kvstore.KVPair, 0, num)
	for i := 0; i < num; i++ {
		kvList = append(kvList, &kvstore.KVPair{
			// a shared prefix plus a unique suffix keeps List predictable
			Key:   append([]byte("k/"), testutil.GenRandomByteArray(r, 16)...),
			Value: testutil.GenRandomByteArray(r, 32),
		})
	}
	return kvList
}

// FuzzBboltStore tests store interfaces work properly.
func FuzzBboltStore(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		s := createStore(r, t)
		defer func() {
			require.NoError(t, s.Close())
		}()

		kvNum := r.Intn(10) + 1
		kvList := genRandomKVList(kvNum, r)
		randIndex := r.Intn(kvNum)

		// Initially the key shouldn't exist
		v, err := s.Get(kvList[randIndex].Key)
		require.Error(t, err)
		require.Nil(t, v)

		// Deleting a non-existing key-value pair should NOT lead to an error
		err = s.Delete(kvList[randIndex].Key)
		require.NoError(t, err)

		for i := 0; i < kvNum; i++ {
			err = s.Put(kvList[i].Key, kvList[i].Value)
			require.NoError(t, err)
			// Storing it again should not lead to an error but just overwrite it
			err = s.Put(kvList[i].Key, kvList[i].Value)
			require.NoError(t, err)

			v, err = s.Get(kvList[i].Key)
			require.NoError(t, err)
			require.Equal(t, kvList[i].Value, v)

			exists, err := s.Exists(kvList[i].Key)
			require.NoError(t, err)
			require.True(t, exists)
		}

		// List with the shared prefix and from the start
		listed, err := s.List([]byte("k/"))
		require.NoError(t, err)
		require.Len(t, listed, kvNum)
		listed, err = s.List(nil)
		require.NoError(t, err)
		require.Len(t, listed, kvNum)

		// Delete
		err = s.Delete(kvList[randIndex].Key)
		require.NoError(t, err)
		v, err = s.Get(kvList[randIndex].Key)
		require.Error(t, err)
		require.Nil(t, v)
		exists, err := s.Exists(kvList[randIndex].Key)
		require.NoError(t, err)
		require.False(t, exists)
	})
}
