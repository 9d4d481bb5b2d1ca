// Package export writes lead exports. The Orchestrator decides between
// running immediately and asking for confirmation based on size, fetches
// the leads in the background and reports the outcome through a Notifier.
package export

import (
	"fmt"
	"strings"

	"github.com/wesm/leaddesk/internal/query"
)

// Scope selects which leads an export covers.
type Scope string

const (
	// ScopeSelection exports the selected IDs.
	ScopeSelection Scope = "selection"
	// ScopeFiltered exports every lead matching the current view.
	ScopeFiltered Scope = "filtered"
)

// Format is the output file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// ParseFormat accepts "csv", "excel" and "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or excel)", s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == FormatExcel {
		return ".xlsx"
	}
	return ".csv"
}

// Label returns the display name used in notices.
func (f Format) Label() string {
	if f == FormatExcel {
		return "Excel"
	}
	return "CSV"
}

// State is the orchestrator state.
type State int

const (
	Idle State = iota
	Confirming
	Running
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Confirming:
		return "confirming"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Request describes an export to perform.
type Request struct {
	Scope  Scope
	Format Format
	// IDs are the selected lead IDs for ScopeSelection.
	IDs []int64
	// Params and Total describe the view for ScopeFiltered. Total is the
	// server-reported match count; paging fields in Params are ignored.
	Params query.ListParams
	Total  int64
	// Name optionally prefixes the output file name.
	Name string
}

// Count returns the number of leads the request covers.
func (r Request) Count() int {
	if r.Scope == ScopeSelection {
		return len(r.IDs)
	}
	return int(r.Total)
}

// Job is a snapshot of the current or most recent export.
type Job struct {
	ID     uint64
	Scope  Scope
	Format Format
	Count  int
	State  State
	Loaded int
	Total  int
	Path   string
	Notice Notice
}

// Busy reports whether an export is waiting on the user or still running.
func (j Job) Busy() bool {
	return j.State == Confirming || j.State == Running
}
