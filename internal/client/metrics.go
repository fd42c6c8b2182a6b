package client

import "time"

// Metrics tracks rolling client-side prediction statistics, following the
// AverageMs+Count rolling-stat shape internal/observability uses for
// TickTimeStats/GCPauseStats.
type Metrics struct {
	Rollbacks           Counter
	CorrectionsApplied  Counter
	MissingRewindEntry  Counter
	PredictionError     RollingStat
	NetworkDelay        RollingDuration
	StepTime            RollingDuration
	InputsGenerated     Counter
	InputsDiscarded     Counter
	RateLimitViolations Counter
	PacketsReceived     Counter
	PacketsLost         Counter
	RewindUtilization   float64
}

// Counter is a monotonic event count.
type Counter struct {
	Count uint64
}

func (c *Counter) inc() { c.Count++ }

// RollingStat tracks a running average and maximum of a float64 metric,
// such as prediction error in world units.
type RollingStat struct {
	AverageMs float64 // despite the name (kept for shape-parity with observability), units match the sample
	Max       float64
	Count     uint64
}

func (s *RollingStat) record(sample float64) {
	s.Count++
	s.AverageMs += (sample - s.AverageMs) / float64(s.Count)
	if sample > s.Max {
		s.Max = sample
	}
}

// RollingDuration tracks a running average and maximum time.Duration.
type RollingDuration struct {
	Average time.Duration
	Max     time.Duration
	Count   uint64
}

func (s *RollingDuration) record(sample time.Duration) {
	s.Count++
	s.Average += time.Duration((float64(sample) - float64(s.Average)) / float64(s.Count))
	if sample > s.Max {
		s.Max = sample
	}
}

// NewMetrics creates a zeroed metrics set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordRollback()                 { m.Rollbacks.inc() }
func (m *Metrics) recordCorrectionApplied()        { m.CorrectionsApplied.inc() }
func (m *Metrics) recordMissingRewindEntry()       { m.MissingRewindEntry.inc() }
func (m *Metrics) recordPredictionError(v float64) { m.PredictionError.record(v) }
func (m *Metrics) recordNetworkDelay(d time.Duration) { m.NetworkDelay.record(d) }
func (m *Metrics) recordStepDuration(d time.Duration) { m.StepTime.record(d) }
func (m *Metrics) recordInputGenerated()              { m.InputsGenerated.inc() }
func (m *Metrics) recordInputDiscarded()              { m.InputsDiscarded.inc() }
func (m *Metrics) recordRateLimitViolation()          { m.RateLimitViolations.inc() }
func (m *Metrics) recordPacketReceived()              { m.PacketsReceived.inc() }
func (m *Metrics) recordPacketLost()                  { m.PacketsLost.inc() }
func (m *Metrics) setRewindUtilization(u float64)     { m.RewindUtilization = u }

// RecordPacketReceived and RecordPacketLost are exported for callers
// outside the engine (the transport-facing client loop) that observe
// packet delivery directly rather than through Reconcile.
func (m *Metrics) RecordPacketReceived() { m.recordPacketReceived() }
func (m *Metrics) RecordPacketLost()     { m.recordPacketLost() }
