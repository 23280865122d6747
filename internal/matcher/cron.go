package matcher

import (
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Cron matches the minutes at which a standard five-field cron expression
// ("* * * * 1-5", "@daily", ...) would fire.
type Cron struct {
	cache sync.Map // pattern -> cron.Schedule
}

// NewCron returns a Cron matcher.
func NewCron() *Cron {
	return &Cron{}
}

// Match implements the Matcher interface for *Cron.
func (m *Cron) Match(t time.Time, pattern string) bool {
	sched, ok := m.schedule(pattern)
	if !ok {
		return false
	}

	minute := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	return sched.Next(minute.Add(-time.Second)).Equal(minute)
}

func (m *Cron) schedule(pattern string) (cron.Schedule, bool) {
	if v, ok := m.cache.Load(pattern); ok {
		sched, _ := v.(cron.Schedule)
		return sched, sched != nil
	}

	sched, err := cron.ParseStandard(strings.TrimSpace(pattern))
	if err != nil {
		m.cache.Store(pattern, nil)
		return nil, false
	}
	m.cache.Store(pattern, sched)
	return sched, true
}
