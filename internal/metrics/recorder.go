// Package metrics provides observability hooks for builds and the preview
// server.
//
// Components take a Recorder by injection and default to NoopRecorder, so
// metrics cost nothing unless the preview server enables the Prometheus
// recorder from configuration.
package metrics

import "time"

// Outcome categorizes a finished build for the outcome counter.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning" // built, but with advisory issues
	OutcomeFailed  Outcome = "failed"
)

// Recorder defines the metrics operations the build pipeline and preview
// server emit. Implementations must tolerate nil receivers so callers can
// inject optionally.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	ObserveStageDuration(stage string, d time.Duration)
	IncBuildOutcome(outcome Outcome)
	AddPagesRendered(n int)
	AddIssues(n int)
	IncRebuild(trigger string) // trigger: initial|watch
}

// NoopRecorder is the default Recorder. It does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(Outcome)                    {}
func (NoopRecorder) AddPagesRendered(int)                       {}
func (NoopRecorder) AddIssues(int)                              {}
func (NoopRecorder) IncRebuild(string)                          {}
