package party

import (
	"github.com/quorumnet/partyd/types"
)

// PartyState tracks whether an instance is in service or superseded.
type PartyState string

const (
	PartyStateActive  PartyState = "active"
	PartyStateRetired PartyState = "retired"
)

// Weighting is a fractional weight expressed as value over basis.
type Weighting struct {
	Value int64 `json:"value"`
	Basis int64 `json:"basis,omitempty"`
}

// PartyInstance is one provisioned custody address: the address, the signing
// threshold over the membership basis, and which member proposed it.
type PartyInstance struct {
	Address        types.Address   `json:"address"`
	Threshold      Weighting       `json:"threshold"`
	Proposer       types.PublicKey `json:"proposer"`
	State          PartyState      `json:"state"`
	CreationTime   int64           `json:"creation_time"`
	LastUpdateTime int64           `json:"last_update_time"`
}

// PartyParticipation records one member's weight in one instance.
type PartyParticipation struct {
	Address types.Address `json:"address"`
	Weight  Weighting     `json:"weight"`
}

// PartyMembership is one member key and every instance it participates in.
type PartyMembership struct {
	PublicKey   types.PublicKey      `json:"public_key"`
	Participate []PartyParticipation `json:"participate"`
}

// PartyMetadata is the full provisioning record for one party: every custody
// instance and the membership matrix across them.
type PartyMetadata struct {
	Instances   []PartyInstance   `json:"instances"`
	Memberships []PartyMembership `json:"memberships"`
}

// HasInstance reports whether any instance exists for the currency.
func (m *PartyMetadata) HasInstance(cur types.Currency) bool {
	for _, i := range m.Instances {
		if i.Address.Currency == cur {
			return true
		}
	}
	return false
}

// InstanceOfAddress finds the instance custodying addr.
func (m *PartyMetadata) InstanceOfAddress(addr types.Address) (PartyInstance, bool) {
	for _, i := range m.Instances {
		if i.Address.Equal(addr) {
			return i, true
		}
	}
	return PartyInstance{}, false
}

// MembersOf lists every member key participating in the instance at addr.
func (m *PartyMetadata) MembersOf(addr types.Address) []types.PublicKey {
	var out []types.PublicKey
	for _, mem := range m.Memberships {
		for _, p := range mem.Participate {
			if p.Address.Equal(addr) {
				out = append(out, mem.PublicKey)
				break
			}
		}
	}
	return out
}

// AddressesByCurrency groups active instance addresses per currency, in
// instance order.
func (m *PartyMetadata) AddressesByCurrency() map[types.Currency][]types.Address {
	out := make(map[types.Currency][]types.Address)
	for _, i := range m.Instances {
		if i.State != PartyStateActive {
			continue
		}
		out[i.Address.Currency] = append(out[i.Address.Currency], i.Address)
	}
	return out
}

// AddInstanceEqualMembers appends an instance and gives every listed member
// an equal 1/N participation in it. Members not yet present in the matrix are
// added.
func (m *PartyMetadata) AddInstanceEqualMembers(instance PartyInstance, equalMembers []types.PublicKey) {
	m.Instances = append(m.Instances, instance)
	basis := int64(len(equalMembers))
	participate := PartyParticipation{
		Address: instance.Address,
		Weight:  Weighting{Value: 1, Basis: basis},
	}

	present := make(map[string]struct{}, len(m.Memberships))
	for i := range m.Memberships {
		mem := &m.Memberships[i]
		present[mem.PublicKey.Hex()] = struct{}{}
		if types.ContainsKey(equalMembers, mem.PublicKey) {
			mem.Participate = append(mem.Participate, participate)
		}
	}
	for _, pk := range equalMembers {
		if _, ok := present[pk.Hex()]; ok {
			continue
		}
		m.Memberships = append(m.Memberships, PartyMembership{
			PublicKey:   pk,
			Participate: []PartyParticipation{participate},
		})
	}
}

// RetireInstance marks the instance at addr retired.
func (m *PartyMetadata) RetireInstance(addr types.Address, now int64) bool {
	for i := range m.Instances {
		if m.Instances[i].Address.Equal(addr) {
			m.Instances[i].State = PartyStateRetired
			m.Instances[i].LastUpdateTime = now
			return true
		}
	}
	return false
}

// ComputeThreshold derives the signing threshold for a membership of size n:
// half the membership floored, never below one, and exactly two for the
// common three-member party.
func ComputeThreshold(n int) int64 {
	threshold := int64(n / 2)
	if threshold < 1 {
		threshold = 1
	}
	if n == 3 {
		threshold = 2
	}
	return threshold
}
