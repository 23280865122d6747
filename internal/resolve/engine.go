// Package resolve answers "what is happening right now" for a context
// document: which schedule is in force, which period is running and which
// announcements are showing.
//
// Every query is a pure function of (document, instant, division). The
// engine keeps no document state between calls, so one Engine can serve any
// number of documents and goroutines at once. Malformed entries never make a
// query fail; they are skipped and reported through Engine.Report.
package resolve

import (
	"errors"
	"fmt"
	"time"

	appLog "schoolclock/internal/log"
	"schoolclock/internal/matcher"
	"schoolclock/internal/model"
	"schoolclock/internal/timespan"
)

// ErrUnknownMatcher is reported for scheduling rules whose matcher is not
// registered.
var ErrUnknownMatcher = errors.New("unknown matcher")

// Diagnostic describes a document entry that was skipped during resolution.
type Diagnostic struct {
	// Kind is the array the entry lives in: "full_day_overrides",
	// "scheduling_rules", "timeframe_overrides", "timings", "announcements"
	// or "metadata".
	Kind string
	// Index is the entry's position in the division-then-global sequence.
	Index int
	// Value is the offending duration string, matcher name or zone name.
	Value string
	Err   error
}

// Error implements the error interface for Diagnostic.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s[%d] %q: %v", d.Kind, d.Index, d.Value, d.Err)
}

// Engine resolves schedules, periods and announcements.
type Engine struct {
	// Matchers holds the predicates scheduling rules refer to by name.
	Matchers *matcher.Registry

	// Fallback is the zone used when the document names no valid timezone.
	// If nil, time.Local is used.
	Fallback *time.Location

	// Report receives every skipped entry. If nil, diagnostics are logged at
	// WARN level.
	Report func(Diagnostic)
}

// New returns an engine using the given matchers. A nil registry means
// matcher.Default().
func New(matchers *matcher.Registry) *Engine {
	if matchers == nil {
		matchers = matcher.Default()
	}
	return &Engine{Matchers: matchers}
}

func (e *Engine) report(d Diagnostic) {
	if e.Report != nil {
		e.Report(d)
		return
	}
	appLog.Warn("context entry skipped", "kind", d.Kind, "index", d.Index, "value", d.Value, "err", d.Err)
}

// Location returns the zone the document is evaluated in. It is computed
// on every call since documents can be swapped between calls.
func (e *Engine) Location(doc *model.Document) *time.Location {
	fallback := e.Fallback
	if fallback == nil {
		fallback = time.Local
	}
	if doc == nil || doc.Metadata.Timezone == "" {
		return fallback
	}

	loc, err := time.LoadLocation(doc.Metadata.Timezone)
	if err != nil {
		e.report(Diagnostic{Kind: "metadata", Value: doc.Metadata.Timezone, Err: err})
		return fallback
	}
	return loc
}

// query is the per-call state shared by the resolution steps.
type query struct {
	e     *Engine
	scope model.Scope
	loc   *time.Location
	now   time.Time
}

func (e *Engine) newQuery(doc *model.Document, now time.Time, division string) *query {
	loc := e.Location(doc)
	return &query{
		e:     e,
		scope: doc.ScopeFor(division),
		loc:   loc,
		now:   now.In(loc),
	}
}

// interval parses applies relative to the query instant. Parse failures are
// reported and yield false.
func (q *query) interval(kind string, index int, applies string) (timespan.Interval, bool) {
	iv, err := timespan.ParseDuration(applies, q.loc, q.now)
	if err != nil {
		q.e.report(Diagnostic{Kind: kind, Index: index, Value: applies, Err: err})
		return timespan.Interval{}, false
	}
	return iv, true
}

// firstContaining returns the first entry of applies whose interval holds
// the query instant.
func (q *query) firstContaining(kind string, index int, applies []string) (string, timespan.Interval, bool) {
	for _, a := range applies {
		iv, ok := q.interval(kind, index, a)
		if ok && iv.Contains(q.now) {
			return a, iv, true
		}
	}
	return "", timespan.Interval{}, false
}
