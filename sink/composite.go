package sink

import (
	"fmt"
	"strings"

	"github.com/stationkit/powersdk/errs"
	"github.com/stationkit/powersdk/runtime"
)

// CompositeSink fans a snapshot out to every member sink in order.
// A failing member does not stop the remaining members from
// receiving the snapshot; every failure is aggregated into a single
// SinkError raised after all members have been tried.
type CompositeSink struct {
	sinks []Sink
}

// NewCompositeSink returns a CompositeSink fanning out to sinks, in
// the given order.
func NewCompositeSink(sinks ...Sink) *CompositeSink {
	return &CompositeSink{sinks: sinks}
}

// Write delivers snapshot to every member sink, continuing past
// individual failures.
func (c *CompositeSink) Write(snapshot runtime.DeviceSnapshot) error {
	var failures []string
	for _, s := range c.sinks {
		if err := s.Write(snapshot); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return errs.NewSinkError(fmt.Sprintf("write failed in %d sink(s): %s", len(failures), strings.Join(failures, "; ")), nil)
	}
	return nil
}

// Close closes every member sink, continuing past individual
// failures, and aggregates any into a single SinkError.
func (c *CompositeSink) Close() error {
	var failures []string
	for _, s := range c.sinks {
		if err := s.Close(); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return errs.NewSinkError(fmt.Sprintf("close failed in %d sink(s): %s", len(failures), strings.Join(failures, "; ")), nil)
	}
	return nil
}
