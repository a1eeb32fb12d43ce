package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Maintenance runs periodic housekeeping (cache persistence and store
// compaction) on a cron schedule.
type Maintenance struct {
	cron   *cron.Cron
	logger arbor.ILogger
}

// NewMaintenance schedules the given task on a cron spec. An empty spec
// disables scheduling; Start/Stop stay safe to call.
func NewMaintenance(spec string, task func(), logger arbor.ILogger) (*Maintenance, error) {
	m := &Maintenance{logger: logger}
	if spec == "" {
		return m, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Maintenance task panicked")
			}
		}()
		logger.Debug().Msg("Running scheduled maintenance")
		task()
	}); err != nil {
		return nil, err
	}
	m.cron = c
	return m, nil
}

// Start begins the schedule.
func (m *Maintenance) Start() {
	if m.cron != nil {
		m.cron.Start()
		m.logger.Info().Msg("Maintenance schedule started")
	}
}

// Stop halts the schedule, waiting for a running task to finish.
func (m *Maintenance) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
		m.logger.Info().Msg("Maintenance schedule stopped")
	}
}
