package bbolt

import (
	"bytes"
	"errors"

	bolt "go.etcd.io/bbolt"

	"github.com/quorumnet/partyd/store"
)

// Options configure the bbolt backend. Zero values fall back to the
// defaults below.
type Options struct {
	// BucketName is the bucket key-value pairs live in.
	BucketName string
	// Path of the DB file. bbolt takes an exclusive write lock on it, so
	// every store instance needs its own file.
	Path string
}

var DefaultOptions = Options{
	BucketName: "partyd",
	Path:       "partyd.db",
}

// BboltStore implements store.Store on a single bbolt bucket.
type BboltStore struct {
	db     *bolt.DB
	bucket []byte
}

var _ store.Store = BboltStore{}

// NewBboltStore opens (creating if needed) the DB file and its bucket. Close
// must be called when done so open transactions can finish.
func NewBboltStore(options Options) (BboltStore, error) {
	if options.BucketName == "" {
		options.BucketName = DefaultOptions.BucketName
	}
	if options.Path == "" {
		options.Path = DefaultOptions.Path
	}

	db, err := bolt.Open(options.Path, 0600, nil)
	if err != nil {
		return BboltStore{}, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(options.BucketName))
		return err
	})
	if err != nil {
		return BboltStore{}, err
	}

	return BboltStore{db: db, bucket: []byte(options.BucketName)}, nil
}

// Put stores the given value for the given key. The key must not be empty
// and the value must not be nil.
func (s BboltStore) Put(k []byte, v []byte) error {
	if err := checkKeyAndValue(k, v); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(k, v)
	})
}

// Get retrieves the stored value for the given key; a missing key is an
// error.
func (s BboltStore) Get(k []byte) ([]byte, error) {
	if err := checkKey(k); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data = tx.Bucket(s.bucket).Get(k)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := checkValue(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Exists checks whether the given key exists in the store.
func (s BboltStore) Exists(k []byte) (bool, error) {
	if err := checkKey(k); err != nil {
		return false, err
	}

	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(s.bucket).Get(k) != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// List returns the key range starting with keyPrefix; an empty prefix lists
// the whole bucket.
func (s BboltStore) List(keyPrefix []byte) ([]*store.KVPair, error) {
	var kvList []*store.KVPair

	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(s.bucket).Cursor()
		for k, v := cursor.Seek(keyPrefix); k != nil && bytes.HasPrefix(k, keyPrefix); k, v = cursor.Next() {
			if err := checkValue(v); err != nil {
				return err
			}
			kvList = append(kvList, &store.KVPair{Key: k, Value: v})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kvList, nil
}

// Delete deletes the stored value for the given key. Deleting a non-existing
// key is not an error.
func (s BboltStore) Delete(k []byte) error {
	if err := checkKey(k); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(k)
	})
}

func (s BboltStore) Close() error {
	return s.db.Close()
}

func checkKey(k []byte) error {
	if len(k) == 0 {
		return errors.New("the key should not be empty")
	}
	return nil
}

func checkValue(v []byte) error {
	if v == nil {
		return errors.New("the value should not be nil")
	}
	return nil
}

func checkKeyAndValue(k []byte, v []byte) error {
	if err := checkKey(k); err != nil {
		return err
	}
	return checkValue(v)
}
