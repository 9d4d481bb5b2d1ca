package listview

import (
	"context"
	"sync"
	"time"

	"github.com/wesm/leaddesk/internal/navstate"
	"github.com/wesm/leaddesk/internal/query"
)

// Options configures a Composer.
type Options struct {
	Limits       []int
	DefaultLimit int
	SearchDelay  time.Duration
	Sort         SortState
	Now          func() time.Time // nil uses the wall clock
	CacheSize    int              // pages kept; 0 uses 32
}

// Request is one issued list query.
type Request struct {
	ID     uint64
	Params query.ListParams
}

// Composer merges the list controllers into one request descriptor, runs it
// against the engine and tracks the newest response.
type Composer struct {
	Store      *navstate.Store
	Pagination *Pagination
	Search     *Search
	Status     *StatusFilter
	Owner      *OwnerFilter
	Dates      *DateFilter
	Sort       *Sort

	engine    query.Engine
	cacheSize int

	mu         sync.Mutex
	nextID     uint64
	latest     uint64
	cache      map[string]*query.LeadPage
	cacheOrder []string
	current    *query.LeadPage
	err        error
	loading    bool
}

// NewComposer wires a full controller set to store. engine may be nil when
// only Params is needed.
func NewComposer(store *navstate.Store, engine query.Engine, opts Options) *Composer {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 32
	}
	if opts.Sort.Column == "" {
		opts.Sort = DefaultSort
	}
	return &Composer{
		Store:      store,
		Pagination: NewPagination(store, opts.Limits, opts.DefaultLimit),
		Search:     NewSearch(store, opts.SearchDelay),
		Status:     NewStatusFilter(store),
		Owner:      NewOwnerFilter(store),
		Dates:      NewDateFilter(store, opts.Now),
		Sort:       NewSort(opts.Sort),
		engine:     engine,
		cacheSize:  opts.CacheSize,
		cache:      make(map[string]*query.LeadPage),
	}
}

// ParamsForQuery builds the request descriptor for a view query string
// without keeping any state.
func ParamsForQuery(raw string, opts Options) query.ListParams {
	c := NewComposer(navstate.NewStore(raw), nil, opts)
	defer c.Close()
	return c.Params()
}

// Close detaches the controllers from the store.
func (c *Composer) Close() {
	c.Search.Close()
}

// Params builds the request descriptor from the current state. Unset
// dimensions stay empty so the backend applies no constraint.
func (c *Composer) Params() query.ListParams {
	st := c.Store.Read()
	pg := c.Pagination.Read(st)
	srt := c.Sort.State()
	p := query.ListParams{
		Page:     pg.Page,
		Limit:    pg.Limit,
		Search:   st.Get(SearchKey),
		Statuses: toStatuses(c.Status.codec.Read(st)),
		SortBy:   srt.Column,
		SortDir:  srt.Direction(),
	}
	if owners := c.Owner.codec.Read(st); len(owners) > 0 {
		p.Owners = owners
	}
	if r := c.Dates.codec.Read(st).Resolve(c.Dates.codec.now()); r != nil {
		from, to := r.From, r.To
		p.DateFrom, p.DateTo = &from, &to
	}
	return p
}

// Begin issues a request for the current params. Earlier requests become
// stale. When the page is cached it is returned and becomes current
// immediately; the caller need not fetch.
func (c *Composer) Begin() (Request, *query.LeadPage) {
	params := c.Params()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.latest = c.nextID
	req := Request{ID: c.nextID, Params: params}
	if page, ok := c.cache[params.Key()]; ok {
		c.current = page
		c.err = nil
		c.loading = false
		return req, page
	}
	c.loading = true
	return req, nil
}

// Deliver records the response to req. Responses to superseded requests
// are cached under their own params but never shown. It reports whether the
// response became current.
func (c *Composer) Deliver(req Request, page *query.LeadPage, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil && page != nil {
		c.storeLocked(req.Params.Key(), page)
	}
	if req.ID != c.latest {
		return false
	}
	c.loading = false
	if err != nil {
		c.err = err
		return true
	}
	c.err = nil
	c.current = page
	return true
}

func (c *Composer) storeLocked(key string, page *query.LeadPage) {
	if _, ok := c.cache[key]; !ok {
		c.cacheOrder = append(c.cacheOrder, key)
	}
	c.cache[key] = page
	for len(c.cacheOrder) > c.cacheSize {
		delete(c.cache, c.cacheOrder[0])
		c.cacheOrder = c.cacheOrder[1:]
	}
}

// Run executes req against the engine.
func (c *Composer) Run(ctx context.Context, req Request) (*query.LeadPage, error) {
	return c.engine.ListLeads(ctx, req.Params)
}

// Fetch is the synchronous Begin, Run, Deliver path.
func (c *Composer) Fetch(ctx context.Context) (*query.LeadPage, error) {
	req, cached := c.Begin()
	if cached != nil {
		return cached, nil
	}
	page, err := c.Run(ctx, req)
	c.Deliver(req, page, err)
	return page, err
}

// Invalidate drops every cached page, e.g. before a retry or after data changes.
func (c *Composer) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]*query.LeadPage)
	c.cacheOrder = nil
	c.mu.Unlock()
}

// Page returns the current page, or nil before the first response.
func (c *Composer) Page() *query.LeadPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// VisibleIDs returns the IDs on the current page.
func (c *Composer) VisibleIDs() []int64 {
	return c.Page().IDs()
}

// Total returns the server-reported match count of the current page.
func (c *Composer) Total() int64 {
	if p := c.Page(); p != nil {
		return p.Pagination.Total
	}
	return 0
}

// Err returns the error from the newest request, if it failed.
func (c *Composer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Loading reports whether the newest request is still outstanding.
func (c *Composer) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}
