package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

const (
	StrategyTickJob  = "strategy_tick"
	SyncPositionsJob = "sync_positions"
	DailySummaryJob  = "daily_summary"
)

var (
	ErrUnknownJob = fmt.Errorf("unknown job")
)

// trigger yields the next fire time after now.
type trigger interface {
	next(now time.Time) time.Time
}

type intervalTrigger struct {
	interval time.Duration
}

func (t intervalTrigger) next(now time.Time) time.Time {
	return now.Add(t.interval)
}

type dailyTrigger struct {
	at  eventmodels.ClockTime
	loc *time.Location
}

func (t dailyTrigger) next(now time.Time) time.Time {
	local := now.In(t.loc)
	fireAt := t.at.On(local)
	if !fireAt.After(local) {
		fireAt = t.at.On(local.AddDate(0, 0, 1))
	}

	return fireAt
}

// Job is one named unit of scheduled work. At most one run of a job is in flight at a
// time; triggers arriving meanwhile are dropped.
type Job struct {
	name    string
	trigger trigger
	fn      func(ctx context.Context)
	running atomic.Bool
}

func (j *Job) Name() string {
	return j.name
}

// run executes the job unless a run is already in flight. It reports whether the job ran.
func (j *Job) run(ctx context.Context) (ran bool) {
	if !j.running.CompareAndSwap(false, true) {
		log.WithField("job", j.name).Warn("job is still running, skipping trigger")
		return false
	}

	defer j.running.Store(false)

	ctx, span := otel.Tracer("scheduler").Start(ctx, j.name, trace.WithAttributes(attribute.String("job", j.name)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("job", j.name).Errorf("job panicked: %v\n%s", r, debug.Stack())
		}
	}()

	ran = true
	start := time.Now()
	j.fn(ctx)
	log.WithField("job", j.name).Debugf("job finished in %s", time.Since(start))

	return ran
}

func newJob(name string, t trigger, fn func(ctx context.Context)) *Job {
	return &Job{
		name:    name,
		trigger: t,
		fn:      fn,
	}
}
