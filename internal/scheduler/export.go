package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/wesm/leaddesk/internal/config"
	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/query"
)

// ViewExporter runs scheduled exports of saved views through an export
// orchestrator. Scheduled exports are pre-approved, so requests above the
// confirmation threshold are confirmed automatically.
type ViewExporter struct {
	engine        query.Engine
	orch          *export.Orchestrator
	opts          listview.Options
	defaultFormat export.Format

	mu sync.Mutex
}

// NewViewExporter creates an exporter. defaultFormat applies to exports
// that leave format unset.
func NewViewExporter(engine query.Engine, orch *export.Orchestrator, opts listview.Options, defaultFormat export.Format) *ViewExporter {
	if defaultFormat == "" {
		defaultFormat = export.FormatCSV
	}
	return &ViewExporter{engine: engine, orch: orch, opts: opts, defaultFormat: defaultFormat}
}

// Run exports every lead matching job.View and returns the written path.
func (v *ViewExporter) Run(ctx context.Context, job config.ScheduledExport) (string, error) {
	format := v.defaultFormat
	if job.Format != "" {
		f, err := export.ParseFormat(job.Format)
		if err != nil {
			return "", err
		}
		format = f
	}

	params := listview.ParamsForQuery(job.View, v.opts)
	head, err := v.engine.ListLeads(ctx, params.WithPage(1, 1))
	if err != nil {
		return "", fmt.Errorf("count leads for %s: %w", job.Name, err)
	}

	// One export at a time through the shared orchestrator.
	v.mu.Lock()
	defer v.mu.Unlock()

	state, err := v.orch.Request(export.Request{
		Scope:  export.ScopeFiltered,
		Format: format,
		Params: params,
		Total:  head.Pagination.Total,
		Name:   job.Name,
	})
	if err != nil {
		return "", err
	}
	switch state {
	case export.Idle:
		return "", nil
	case export.Confirming:
		if err := v.orch.Confirm(); err != nil {
			return "", err
		}
	}

	j, err := v.orch.Wait(ctx)
	if err != nil {
		return "", err
	}
	v.orch.Acknowledge()
	if j.State == export.Failed {
		return "", fmt.Errorf("export %s failed: %s", job.Name, j.Notice.Text)
	}
	return j.Path, nil
}
