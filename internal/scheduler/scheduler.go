// Package scheduler triggers periodic news re-ingestion on a cron
// expression. The ingestion pipeline's own per-namespace locking serializes
// a scheduled run against any manual ingest of the same namespace.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

type Scheduler struct {
	expr   *cronexpr.Expression
	run    func(ctx context.Context) error
	logger *log.Logger
	stop   chan struct{}
	done   chan struct{}
}

// New parses spec (standard cron syntax) and prepares a scheduler that calls
// run at each trigger.
func New(spec string, run func(ctx context.Context) error, logger *log.Logger) (*Scheduler, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse cron %q: %w", spec, err)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	return &Scheduler{
		expr:   expr,
		run:    run,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

func (s *Scheduler) Start() {
	go s.loop()
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)
	for {
		next := s.expr.Next(time.Now())
		if next.IsZero() {
			s.logger.Printf("cron expression has no future trigger, stopping")
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
		s.logger.Printf("triggering scheduled run")
		if err := s.run(context.Background()); err != nil {
			s.logger.Printf("scheduled run failed: %v", err)
		}
	}
}
