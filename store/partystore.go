package store

import (
	"encoding/json"
	"fmt"

	"github.com/quorumnet/partyd/party"
	"github.com/quorumnet/partyd/types"
)

const (
	metadataKey     = "party-metadata"
	partyDataPrefix = "party-data"
)

// PartyStore persists the provisioning metadata and per-party reconciliation
// records as JSON over a plain KV store.
type PartyStore struct {
	s Store
}

func NewPartyStore(s Store) *PartyStore {
	return &PartyStore{s: s}
}

func partyDataKey(key types.PublicKey) []byte {
	return append([]byte(partyDataPrefix), key...)
}

// SaveMetadata overwrites the provisioning record.
func (ps *PartyStore) SaveMetadata(m *party.PartyMetadata) error {
	v, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal party metadata: %w", err)
	}
	if err := ps.s.Put([]byte(metadataKey), v); err != nil {
		return fmt.Errorf("failed to save party metadata: %w", err)
	}
	return nil
}

// GetMetadata loads the provisioning record; a store without one yields an
// empty record.
func (ps *PartyStore) GetMetadata() (*party.PartyMetadata, error) {
	exists, err := ps.s.Exists([]byte(metadataKey))
	if err != nil {
		return nil, err
	}
	if !exists {
		return &party.PartyMetadata{}, nil
	}

	v, err := ps.s.Get([]byte(metadataKey))
	if err != nil {
		return nil, err
	}
	var m party.PartyMetadata
	if err := json.Unmarshal(v, &m); err != nil {
		return nil, types.ErrCorruptedRecord.Wrapf("party metadata: %v", err)
	}
	return &m, nil
}

// SavePartyData persists one party's reconciliation record keyed by the
// party public key.
func (ps *PartyStore) SavePartyData(d *party.InternalData) error {
	if len(d.PartyKey) == 0 {
		return fmt.Errorf("party data has no party key")
	}
	v, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal party data: %w", err)
	}
	if err := ps.s.Put(partyDataKey(d.PartyKey), v); err != nil {
		return fmt.Errorf("failed to save party data: %w", err)
	}
	return nil
}

// GetPartyData loads one party's record.
func (ps *PartyStore) GetPartyData(key types.PublicKey) (*party.InternalData, error) {
	v, err := ps.s.Get(partyDataKey(key))
	if err != nil {
		return nil, err
	}
	var d party.InternalData
	if err := json.Unmarshal(v, &d); err != nil {
		return nil, types.ErrCorruptedRecord.Wrapf("party data %s: %v", key.Hex(), err)
	}
	return &d, nil
}

// HasPartyData reports whether a record exists for the key.
func (ps *PartyStore) HasPartyData(key types.PublicKey) (bool, error) {
	return ps.s.Exists(partyDataKey(key))
}

// ListPartyData loads every persisted party record.
func (ps *PartyStore) ListPartyData() ([]*party.InternalData, error) {
	kvs, err := ps.s.List([]byte(partyDataPrefix))
	if err != nil {
		return nil, err
	}
	out := make([]*party.InternalData, 0, len(kvs))
	for _, kv := range kvs {
		var d party.InternalData
		if err := json.Unmarshal(kv.Value, &d); err != nil {
			return nil, types.ErrCorruptedRecord.Wrapf("party data %x: %v", kv.Key, err)
		}
		out = append(out, &d)
	}
	return out, nil
}

// DeletePartyData removes one party's record.
func (ps *PartyStore) DeletePartyData(key types.PublicKey) error {
	return ps.s.Delete(partyDataKey(key))
}

func (ps *PartyStore) Close() error {
	return ps.s.Close()
}
