package jobs

import (
	"context"
	"fmt"
	"time"

	"guesstimate/internal/analysis"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// RefreshTimeout bounds one scheduled analysis.
const RefreshTimeout = 10 * time.Minute

type refresher interface {
	Refresh(ctx context.Context, q analysis.Query) (*analysis.Response, error)
}

// Cron re-runs the default query on a schedule so the memo is warm when clients ask for it.
type Cron struct {
	svc refresher
	jql string
	c   *cron.Cron
}

// NewCron schedules the refresh of jql with a standard five-field spec.
func NewCron(spec, jql string, loc *time.Location, svc refresher) (*Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)))
	cr := &Cron{svc: svc, jql: jql, c: c}
	if _, err := c.AddFunc(spec, cr.refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return cr, nil
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop halts the scheduler and waits for a running refresh.
func (cr *Cron) Stop() {
	<-cr.c.Stop().Done()
}

// Next reports when the refresh runs next.
func (cr *Cron) Next() time.Time {
	entries := cr.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (cr *Cron) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), RefreshTimeout)
	defer cancel()

	log.Info().Str("jql", cr.jql).Msg("cron: refreshing default query")
	resp, err := cr.svc.Refresh(ctx, analysis.Query{JQL: cr.jql})
	if err != nil {
		log.Error().Err(err).Msg("cron: refresh failed")
		return
	}
	if resp.Error != nil {
		log.Warn().Str("error", *resp.Error).Msg("cron: default query rejected")
	}
}
