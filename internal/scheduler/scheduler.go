// Package scheduler provides cron-based background scheduling for SpecPipe.
//
// Its single production job is the periodic session-expiry sweep, but the
// wrapper stays generic: any task can be registered with a cron expression.
package scheduler

import (
	"github.com/robfig/cron/v3"
)

// DefaultSweepCron is the cadence of the background expiry sweep.
const DefaultSweepCron = "*/5 * * * *"

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler. It uses the standard
// 5-field parser and recovers panicking jobs so a failing sweep cannot take
// the process down.
func NewScheduler() *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
