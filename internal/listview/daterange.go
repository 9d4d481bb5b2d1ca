package listview

import (
	"slices"
	"time"

	"github.com/wesm/leaddesk/internal/navstate"
	"github.com/wesm/leaddesk/internal/query"
)

// Preset names a relative date range. Presets are stored by name and
// resolved against the clock on every read.
type Preset string

const (
	PresetAll        Preset = ""
	PresetToday      Preset = "today"
	PresetYesterday  Preset = "yesterday"
	PresetLast7Days  Preset = "last-7-days"
	PresetLast30Days Preset = "last-30-days"
	PresetThisMonth  Preset = "this-month"
	PresetLastMonth  Preset = "last-month"
)

// Presets lists the selectable presets in menu order.
var Presets = []Preset{
	PresetToday,
	PresetYesterday,
	PresetLast7Days,
	PresetLast30Days,
	PresetThisMonth,
	PresetLastMonth,
}

// Valid reports whether p is a known preset. PresetAll is not a preset.
func (p Preset) Valid() bool {
	return slices.Contains(Presets, p)
}

// Label returns the menu label.
func (p Preset) Label() string {
	switch p {
	case PresetToday:
		return "Today"
	case PresetYesterday:
		return "Yesterday"
	case PresetLast7Days:
		return "Last 7 days"
	case PresetLast30Days:
		return "Last 30 days"
	case PresetThisMonth:
		return "This month"
	case PresetLastMonth:
		return "Last month"
	default:
		return "All time"
	}
}

// DateRange is an inclusive span of calendar days. Both bounds are
// midnight in the location of the clock that produced them.
type DateRange struct {
	From time.Time
	To   time.Time
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Resolve computes the concrete range for p on the day containing now.
// PresetAll and unknown presets resolve to nil.
func (p Preset) Resolve(now time.Time) *DateRange {
	today := startOfDay(now)
	var r DateRange
	switch p {
	case PresetToday:
		r = DateRange{today, today}
	case PresetYesterday:
		y := today.AddDate(0, 0, -1)
		r = DateRange{y, y}
	case PresetLast7Days:
		r = DateRange{today.AddDate(0, 0, -6), today}
	case PresetLast30Days:
		r = DateRange{today.AddDate(0, 0, -29), today}
	case PresetThisMonth:
		r = DateRange{today.AddDate(0, 0, 1-today.Day()), today}
	case PresetLastMonth:
		first := today.AddDate(0, 0, 1-today.Day())
		r = DateRange{first.AddDate(0, -1, 0), first.AddDate(0, 0, -1)}
	default:
		return nil
	}
	return &r
}

// DateSelection is the persisted date filter: a preset name, a custom
// range, or neither (all time).
type DateSelection struct {
	Preset Preset
	Custom *DateRange
}

// IsZero reports whether the selection means all time.
func (d DateSelection) IsZero() bool {
	return d.Preset == PresetAll && d.Custom == nil
}

// Resolve returns the concrete range at now, or nil for all time.
func (d DateSelection) Resolve(now time.Time) *DateRange {
	if d.Preset != PresetAll {
		return d.Preset.Resolve(now)
	}
	if d.Custom != nil {
		r := *d.Custom
		return &r
	}
	return nil
}

// Label describes the selection for display.
func (d DateSelection) Label() string {
	if d.Custom != nil {
		return d.Custom.From.Format(query.DateLayout) + " to " + d.Custom.To.Format(query.DateLayout)
	}
	return d.Preset.Label()
}

// DateCodec persists a DateSelection under range, or from and to.
type DateCodec struct {
	Now func() time.Time
}

func (c *DateCodec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// normalize swaps reversed bounds and caps both at today. The lower bound
// is otherwise unconstrained.
func (c *DateCodec) normalize(r DateRange) DateRange {
	from, to := startOfDay(r.From), startOfDay(r.To)
	if from.After(to) {
		from, to = to, from
	}
	y, m, d := c.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, to.Location())
	if to.After(today) {
		to = today
	}
	if from.After(to) {
		from = to
	}
	return DateRange{From: from, To: to}
}

func (c *DateCodec) Read(s navstate.State) DateSelection {
	if p := Preset(s.Get(RangeKey)); p.Valid() {
		return DateSelection{Preset: p}
	}
	loc := c.now().Location()
	from, errFrom := time.ParseInLocation(query.DateLayout, s.Get(FromKey), loc)
	to, errTo := time.ParseInLocation(query.DateLayout, s.Get(ToKey), loc)
	if errFrom != nil || errTo != nil {
		return DateSelection{}
	}
	r := c.normalize(DateRange{From: from, To: to})
	return DateSelection{Custom: &r}
}

func (c *DateCodec) Write(s *navstate.State, d DateSelection) {
	s.Delete(RangeKey)
	s.Delete(FromKey)
	s.Delete(ToKey)
	switch {
	case d.Preset.Valid():
		s.Set(RangeKey, string(d.Preset))
	case d.Custom != nil:
		r := c.normalize(*d.Custom)
		s.Set(FromKey, r.From.Format(query.DateLayout))
		s.Set(ToKey, r.To.Format(query.DateLayout))
	}
}

// DateFilter owns the range, from and to keys.
type DateFilter struct {
	*Filter[DateSelection]
	codec *DateCodec
}

// NewDateFilter creates a date filter. now may be nil to use the wall clock.
func NewDateFilter(store *navstate.Store, now func() time.Time) *DateFilter {
	codec := &DateCodec{Now: now}
	return &DateFilter{Filter: NewFilter[DateSelection](store, codec), codec: codec}
}

// Selection returns the persisted selection.
func (f *DateFilter) Selection() DateSelection {
	return f.Value()
}

// Range resolves the selection against the current clock.
func (f *DateFilter) Range() *DateRange {
	return f.Value().Resolve(f.codec.now())
}

// ApplyPreset selects p. PresetAll clears the filter; unknown presets are
// ignored.
func (f *DateFilter) ApplyPreset(p Preset) {
	if p == PresetAll {
		f.Clear()
		return
	}
	if !p.Valid() {
		return
	}
	f.Set(DateSelection{Preset: p})
}

// ApplyCustom selects an explicit range. Bounds are normalized on write.
func (f *DateFilter) ApplyCustom(from, to time.Time) {
	f.Set(DateSelection{Custom: &DateRange{From: from, To: to}})
}

// Clear selects all time.
func (f *DateFilter) Clear() {
	f.Set(DateSelection{})
}

// CyclePreset advances through All time and each preset in order.
func (f *DateFilter) CyclePreset() Preset {
	cur := f.Selection().Preset
	next := PresetToday
	if i := slices.Index(Presets, cur); i >= 0 {
		if i+1 < len(Presets) {
			next = Presets[i+1]
		} else {
			next = PresetAll
		}
	}
	f.ApplyPreset(next)
	return next
}
