package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wesm/leaddesk/internal/query"
)

// Defaults for Config fields left zero.
const (
	DefaultSelectionThreshold = 100
	DefaultFilteredThreshold  = 500
	DefaultMaxRecords         = 10000
	DefaultPageSize           = 100
	DefaultConcurrency        = 4
)

var (
	// ErrBusy is returned when a request arrives while an export is running.
	ErrBusy = errors.New("an export is already running")
	// ErrNotConfirming is returned by Confirm and Cancel outside Confirming.
	ErrNotConfirming = errors.New("no export is awaiting confirmation")
	// ErrTooMany is returned when a filtered export exceeds MaxRecords.
	ErrTooMany = errors.New("too many leads to export")
)

// Config controls thresholds and output.
type Config struct {
	// Exports covering more than these counts need confirmation.
	SelectionThreshold int
	FilteredThreshold  int
	// MaxRecords caps filtered exports.
	MaxRecords int
	// PageSize is the number of rows requested per engine call.
	PageSize    int
	Concurrency int
	// Dir receives the export files.
	Dir string
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.SelectionThreshold <= 0 {
		c.SelectionThreshold = DefaultSelectionThreshold
	}
	if c.FilteredThreshold <= 0 {
		c.FilteredThreshold = DefaultFilteredThreshold
	}
	if c.MaxRecords <= 0 {
		c.MaxRecords = DefaultMaxRecords
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Threshold returns the confirmation threshold for scope.
func (c Config) Threshold(scope Scope) int {
	if scope == ScopeSelection {
		return c.SelectionThreshold
	}
	return c.FilteredThreshold
}

// Orchestrator runs one export at a time. Running exports use a background
// context: they are not cancelled when the view that started them goes
// away, and always end in Done or Failed.
type Orchestrator struct {
	engine   query.Engine
	cfg      Config
	notifier Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	job     Job
	pending *Request
	nextID  uint64
	done    chan struct{}
}

// NewOrchestrator creates an orchestrator. notifier and logger may be nil.
func NewOrchestrator(engine query.Engine, cfg Config, notifier Notifier, logger *slog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		engine:   engine,
		cfg:      cfg.withDefaults(),
		notifier: notifier,
		logger:   logger,
	}
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Job returns a snapshot of the current job.
func (o *Orchestrator) Job() Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.job
}

// Request starts an export or moves to Confirming when the request is above
// its scope's threshold. A finished job is acknowledged implicitly. Empty
// requests short-circuit with an informational notice and leave the state
// Idle.
func (o *Orchestrator) Request(req Request) (State, error) {
	if req.Format == "" {
		req.Format = FormatCSV
	}
	count := req.Count()

	o.mu.Lock()
	if o.job.State == Running {
		o.mu.Unlock()
		return Running, ErrBusy
	}
	o.pending = nil
	o.nextID++
	o.job = Job{ID: o.nextID, Scope: req.Scope, Format: req.Format, Count: count, State: Idle, Total: count}

	if count == 0 {
		o.job.Notice = nothingNotice()
		n := o.job.Notice
		o.mu.Unlock()
		o.notifier.Notify(n)
		return Idle, nil
	}

	if req.Scope == ScopeFiltered && count > o.cfg.MaxRecords {
		o.job.State = Failed
		o.job.Notice = tooManyNotice(count, o.cfg.MaxRecords)
		n := o.job.Notice
		o.mu.Unlock()
		o.logger.Warn("export rejected", "scope", req.Scope, "count", count, "max", o.cfg.MaxRecords)
		o.notifier.Notify(n)
		return Failed, fmt.Errorf("%w: %d matching, limit %d", ErrTooMany, count, o.cfg.MaxRecords)
	}

	if count > o.cfg.Threshold(req.Scope) {
		o.job.State = Confirming
		o.pending = &req
		o.mu.Unlock()
		return Confirming, nil
	}

	o.startLocked(req)
	o.mu.Unlock()
	return Running, nil
}

// Confirm runs the export awaiting confirmation.
func (o *Orchestrator) Confirm() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job.State != Confirming || o.pending == nil {
		return ErrNotConfirming
	}
	req := *o.pending
	o.pending = nil
	o.startLocked(req)
	return nil
}

// Cancel abandons the export awaiting confirmation.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job.State != Confirming {
		return ErrNotConfirming
	}
	o.pending = nil
	o.job.State = Idle
	return nil
}

// Acknowledge returns a finished job to Idle. It is a no-op in other states.
func (o *Orchestrator) Acknowledge() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job.State == Done || o.job.State == Failed {
		o.job.State = Idle
	}
}

// Wait blocks until the running export finishes or ctx is done. It returns
// immediately when nothing is running.
func (o *Orchestrator) Wait(ctx context.Context) (Job, error) {
	o.mu.Lock()
	done := o.done
	running := o.job.State == Running
	o.mu.Unlock()
	if !running || done == nil {
		return o.Job(), nil
	}
	select {
	case <-done:
		return o.Job(), nil
	case <-ctx.Done():
		return o.Job(), ctx.Err()
	}
}

func (o *Orchestrator) startLocked(req Request) {
	o.job.State = Running
	o.job.Loaded = 0
	o.job.Total = req.Count()
	o.done = make(chan struct{})
	go o.run(o.job.ID, req, o.done)
}

func (o *Orchestrator) progress(id uint64, loaded int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job.ID == id && o.job.State == Running {
		o.job.Loaded = min(loaded, o.job.Total)
	}
}

func (o *Orchestrator) run(id uint64, req Request, done chan struct{}) {
	start := time.Now()
	var (
		path string
		n    int
		err  error
	)
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("export panicked: %v", r)
		}
		o.finish(id, req, path, n, err, time.Since(start))
	}()

	path, n, err = o.execute(context.Background(), id, req)
}

func (o *Orchestrator) execute(ctx context.Context, id uint64, req Request) (string, int, error) {
	f := &fetcher{
		engine:      o.engine,
		pageSize:    o.cfg.PageSize,
		concurrency: o.cfg.Concurrency,
		progress:    func(loaded int) { o.progress(id, loaded) },
	}

	var leads []query.Lead
	var err error
	switch req.Scope {
	case ScopeSelection:
		leads, err = f.byIDs(ctx, req.IDs)
	case ScopeFiltered:
		leads, err = f.filtered(ctx, req.Params, min(req.Count(), o.cfg.MaxRecords))
	default:
		err = eris.Errorf("unknown export scope %q", req.Scope)
	}
	if err != nil {
		return "", 0, err
	}
	if len(leads) == 0 {
		return "", 0, nil
	}

	path, err := writeFile(o.cfg.Dir, req.Name, req.Format, leads, o.cfg.Now())
	if err != nil {
		return "", 0, err
	}
	return path, len(leads), nil
}

func (o *Orchestrator) finish(id uint64, req Request, path string, n int, err error, elapsed time.Duration) {
	var notice Notice
	o.mu.Lock()
	if o.job.ID == id {
		switch {
		case err != nil:
			o.job.State = Failed
			notice = failureNotice()
		case n == 0:
			o.job.State = Done
			notice = nothingNotice()
		default:
			o.job.State = Done
			o.job.Path = path
			o.job.Loaded = n
			notice = successNotice(n, req.Format)
		}
		o.job.Notice = notice
	}
	o.mu.Unlock()

	if err != nil {
		o.logger.Error("export failed",
			"scope", req.Scope, "format", req.Format, "count", req.Count(),
			"error", eris.ToString(err, true))
	} else {
		o.logger.Info("export finished",
			"scope", req.Scope, "format", req.Format, "rows", n, "path", path,
			"elapsed", elapsed.Round(time.Millisecond))
	}
	if notice.Text != "" {
		o.notifier.Notify(notice)
	}
}
