package train

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Window accumulates per-step timings between log lines and resets on
// Snapshot.
type Window struct {
	samples  int
	data     time.Duration
	compute  time.Duration
	steps    int
	lastLoss float64
}

// Record adds one optimizer step to the window.
func (w *Window) Record(batchSize int, dataTime, computeTime time.Duration, loss float64) {
	w.samples += batchSize
	w.data += dataTime
	w.compute += computeTime
	w.steps++
	w.lastLoss = loss
}

// Snapshot aggregates the window and resets it.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{LastLoss: w.lastLoss}
	total := w.data + w.compute
	if total > 0 {
		snap.ImagesPerSec = float64(w.samples) / total.Seconds()
	}
	if w.steps > 0 {
		snap.AvgDataMS = w.data.Seconds() * 1000 / float64(w.steps)
		snap.AvgComputeMS = w.compute.Seconds() * 1000 / float64(w.steps)
	}
	*w = Window{}
	return snap
}

// Snapshot is one loggable metrics window.
type Snapshot struct {
	ImagesPerSec float64
	AvgDataMS    float64
	AvgComputeMS float64
	LastLoss     float64
}

// EpochSummary aggregates the step losses of one epoch.
type EpochSummary struct {
	losses []float64
}

// Add records one step loss.
func (e *EpochSummary) Add(loss float64) {
	e.losses = append(e.losses, loss)
}

// Steps reports how many losses were recorded.
func (e *EpochSummary) Steps() int { return len(e.losses) }

// Mean is the mean step loss of the epoch, 0 for an empty epoch.
func (e *EpochSummary) Mean() float64 {
	if len(e.losses) == 0 {
		return 0
	}
	return stat.Mean(e.losses, nil)
}

// StdDev is the sample standard deviation of the step losses.
func (e *EpochSummary) StdDev() float64 {
	if len(e.losses) < 2 {
		return 0
	}
	return stat.StdDev(e.losses, nil)
}
