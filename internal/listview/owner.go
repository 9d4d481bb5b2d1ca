package listview

import (
	"sync"

	"github.com/wesm/leaddesk/internal/navstate"
	"github.com/wesm/leaddesk/internal/query"
)

// ownerSet validates owner tokens. Until the team is known any well-formed
// ID passes, so a deep link survives the first render.
type ownerSet struct {
	mu    sync.RWMutex
	known map[string]bool
}

func (o *ownerSet) valid(id string) bool {
	if id == query.UnassignedOwner {
		return true
	}
	if !query.ValidOwnerID(id) {
		return false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.known == nil || o.known[id]
}

// NewOwnerCodec returns the codec for the owner key with no team loaded.
func NewOwnerCodec() *SetCodec {
	return newOwnerCodec(&ownerSet{})
}

func newOwnerCodec(o *ownerSet) *SetCodec {
	return &SetCodec{Key: OwnerKey, Valid: o.valid}
}

// OwnerFilter is the multi-select over team members plus the unassigned
// sentinel.
type OwnerFilter struct {
	*SetFilter
	owners *ownerSet
}

// NewOwnerFilter creates an owner filter bound to store.
func NewOwnerFilter(store *navstate.Store) *OwnerFilter {
	o := &ownerSet{}
	return &OwnerFilter{SetFilter: NewSetFilter(store, newOwnerCodec(o)), owners: o}
}

// SetKnown narrows validation to the given team. IDs in the URL that are
// not on the team are dropped on read from then on.
func (f *OwnerFilter) SetKnown(team []query.TeamMember) {
	known := make(map[string]bool, len(team))
	for _, m := range team {
		known[m.ID] = true
	}
	f.owners.mu.Lock()
	f.owners.known = known
	f.owners.mu.Unlock()
}

// ToggleUnassigned adds or removes the unassigned sentinel.
func (f *OwnerFilter) ToggleUnassigned() {
	f.Toggle(query.UnassignedOwner)
}
