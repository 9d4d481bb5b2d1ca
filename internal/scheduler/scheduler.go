// Package scheduler provides cron-based scheduling for saved-view exports.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wesm/leaddesk/internal/config"
)

// ExportFunc is the callback invoked when a scheduled export should run.
// It returns the path of the written file, or "" when nothing matched.
type ExportFunc func(ctx context.Context, job config.ScheduledExport) (string, error)

// ExportStatus represents the state of one scheduled export.
type ExportStatus struct {
	Name      string    `json:"name"`
	View      string    `json:"view"`
	Schedule  string    `json:"schedule"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"lastRun,omitempty"`
	NextRun   time.Time `json:"nextRun"`
	LastFile  string    `json:"lastFile,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// Scheduler manages cron-based export scheduling.
type Scheduler struct {
	cron     *cron.Cron
	exportFn ExportFunc
	logger   *slog.Logger

	mu       sync.RWMutex
	jobs     map[string]cron.EntryID           // name -> cron entry ID
	defs     map[string]config.ScheduledExport // name -> definition
	running  map[string]bool                   // name -> currently exporting
	lastRun  map[string]time.Time              // name -> last successful run
	lastFile map[string]string                 // name -> last written file
	lastErr  map[string]error                  // name -> last error

	ctx     context.Context    // cancelled on Stop
	cancel  context.CancelFunc // cancels ctx
	wg      sync.WaitGroup     // tracks running export goroutines
	started bool               // true after Start(), false after Stop()
	stopped bool               // true after Stop()
}

func newParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// New creates a new Scheduler with the given export callback.
func New(exportFn ExportFunc) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithParser(newParser())),
		exportFn: exportFn,
		logger:   slog.Default(),
		jobs:     make(map[string]cron.EntryID),
		defs:     make(map[string]config.ScheduledExport),
		running:  make(map[string]bool),
		lastRun:  make(map[string]time.Time),
		lastFile: make(map[string]string),
		lastErr:  make(map[string]error),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// WithLogger sets the logger for the scheduler.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// AddExport schedules a saved-view export. An existing export with the same
// name is replaced. Returns an error if the cron expression is invalid.
func (s *Scheduler) AddExport(def config.ScheduledExport) error {
	if def.Name == "" {
		return fmt.Errorf("scheduled export name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.jobs[def.Name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, def.Name)
		delete(s.defs, def.Name)
	}

	name := def.Name
	entryID, err := s.cron.AddFunc(def.Schedule, func() {
		s.mu.Lock()
		if s.stopped || s.running[name] {
			s.mu.Unlock()
			return
		}
		s.running[name] = true
		s.wg.Add(1)
		s.mu.Unlock()
		s.runExport(name)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", def.Schedule, err)
	}

	s.jobs[name] = entryID
	s.defs[name] = def
	s.logger.Info("scheduled export",
		"name", name,
		"view", def.View,
		"schedule", def.Schedule,
		"next_run", s.cron.Entry(entryID).Next)

	return nil
}

// AddExportsFromConfig adds all enabled scheduled exports from the config.
// Returns the number scheduled and any errors encountered.
func (s *Scheduler) AddExportsFromConfig(cfg *config.Config) (int, []error) {
	var errs []error
	scheduled := 0

	for _, def := range cfg.EnabledScheduledExports() {
		if err := s.AddExport(def); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", def.Name, err))
		} else {
			scheduled++
		}
	}

	return scheduled, errs
}

// RemoveExport removes a scheduled export.
func (s *Scheduler) RemoveExport(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.jobs[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		delete(s.defs, name)
		s.logger.Info("removed schedule", "name", name)
	}
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.started = true
	s.stopped = false
	n := len(s.jobs)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", n)
}

// IsRunning returns true if the scheduler has been started and not yet stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && !s.stopped
}

// Stop stops the scheduler and returns a context that is done when running
// exports have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	s.cancel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		cancel()
	}()
	return ctx
}

// runExport executes an export (called by cron or TriggerExport).
// The caller must have already called wg.Add(1) and set running[name] = true.
func (s *Scheduler) runExport(name string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running[name] = false
		s.mu.Unlock()
	}()

	s.mu.RLock()
	def := s.defs[name]
	s.mu.RUnlock()

	s.logger.Info("starting scheduled export", "name", name, "view", def.View)
	start := time.Now()

	path, err := s.exportFn(s.ctx, def)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr[name] = err
		s.logger.Error("scheduled export failed",
			"name", name,
			"duration", time.Since(start),
			"error", err)
		return
	}
	s.lastRun[name] = time.Now()
	s.lastFile[name] = path
	s.lastErr[name] = nil
	s.logger.Info("scheduled export completed",
		"name", name,
		"file", path,
		"duration", time.Since(start))
}

// IsScheduled returns true if an export with the given name is scheduled.
func (s *Scheduler) IsScheduled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.jobs[name]
	return exists
}

// TriggerExport runs a scheduled export now, outside of its schedule.
// Returns an error if it is already running, not scheduled, or the
// scheduler has been stopped.
func (s *Scheduler) TriggerExport(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}
	if _, exists := s.jobs[name]; !exists {
		return fmt.Errorf("export %s is not scheduled", name)
	}
	if s.running[name] {
		return fmt.Errorf("export already running for %s", name)
	}

	s.running[name] = true
	s.wg.Add(1)
	go s.runExport(name)
	return nil
}

// Status returns the status of all scheduled exports ordered by name.
func (s *Scheduler) Status() []ExportStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]ExportStatus, 0, len(s.jobs))
	for name, entryID := range s.jobs {
		def := s.defs[name]
		status := ExportStatus{
			Name:     name,
			View:     def.View,
			Schedule: def.Schedule,
			Running:  s.running[name],
			LastRun:  s.lastRun[name],
			NextRun:  s.cron.Entry(entryID).Next,
			LastFile: s.lastFile[name],
		}
		if err := s.lastErr[name]; err != nil {
			status.LastError = err.Error()
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// ValidateCronExpr validates a cron expression without scheduling anything.
func ValidateCronExpr(expr string) error {
	if _, err := newParser().Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
