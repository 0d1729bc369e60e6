package party

import (
	"sort"

	"github.com/quorumnet/partyd/types"
)

// InternalData is the full per-party record the watcher maintains and the
// store persists: provisioning metadata, the raw event feed, and the derived
// reconciliation state.
type InternalData struct {
	PartyKey types.PublicKey `json:"party_key"`
	Metadata PartyMetadata   `json:"metadata"`

	// AddressEvents is the merged, unordered feed of internal and external
	// events gathered for this party's addresses.
	AddressEvents []AddressEvent `json:"address_events,omitempty"`

	// PartyEvents is the state derived by replaying AddressEvents; rebuilt
	// on load rather than trusted from disk.
	PartyEvents *Events `json:"party_events,omitempty"`

	// SelfInitiated marks parties this node proposed; only those are
	// settled by this node.
	SelfInitiated bool `json:"self_initiated"`
}

// Rebuild replays the address event feed into a fresh Events state. The feed
// is replayed in resolved-time order so the derived state does not depend on
// the order the events were gathered in; events without a resolvable time
// sort first and park as unconfirmed.
func (d *InternalData) Rebuild(network types.Network, seeds []types.PublicKey) error {
	evs := make([]AddressEvent, len(d.AddressEvents))
	copy(evs, d.AddressEvents)
	sort.SliceStable(evs, func(i, j int) bool {
		ti, _ := evs[i].Time(seeds)
		tj, _ := evs[j].Time(seeds)
		return ti < tj
	})

	ev := NewEvents(network, seeds, d.Metadata.AddressesByCurrency())
	for _, e := range evs {
		if err := ev.ProcessEvent(e); err != nil {
			return err
		}
	}
	d.PartyEvents = ev
	return nil
}
