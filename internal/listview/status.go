package listview

import (
	"strings"

	"github.com/wesm/leaddesk/internal/navstate"
	"github.com/wesm/leaddesk/internal/query"
)

// NewStatusCodec returns the codec for the status key.
func NewStatusCodec() *SetCodec {
	return &SetCodec{
		Key:       StatusKey,
		Normalize: strings.ToLower,
		Valid: func(v string) bool {
			return query.LeadStatus(v).Valid()
		},
	}
}

// StatusFilter is the multi-select over lead statuses.
type StatusFilter struct {
	*SetFilter
}

// NewStatusFilter creates a status filter bound to store.
func NewStatusFilter(store *navstate.Store) *StatusFilter {
	return &StatusFilter{SetFilter: NewSetFilter(store, NewStatusCodec())}
}

// Statuses returns the selected statuses in token order.
func (f *StatusFilter) Statuses() []query.LeadStatus {
	return toStatuses(f.Values())
}

// ToggleStatus adds or removes one status.
func (f *StatusFilter) ToggleStatus(s query.LeadStatus) {
	f.Toggle(string(s))
}

func toStatuses(values []string) []query.LeadStatus {
	if len(values) == 0 {
		return nil
	}
	out := make([]query.LeadStatus, len(values))
	for i, v := range values {
		out[i] = query.LeadStatus(v)
	}
	return out
}
