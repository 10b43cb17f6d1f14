package train

import (
	"math"
	"testing"
	"time"
)

func TestWindowSnapshotAndReset(t *testing.T) {
	var w Window
	w.Record(64, 20*time.Millisecond, 10*time.Millisecond, 1.2)
	w.Record(64, 10*time.Millisecond, 20*time.Millisecond, 0.8)
	snap := w.Snapshot()
	if math.Abs(snap.ImagesPerSec-2133.3333) > 1 {
		t.Fatalf("unexpected throughput %.2f", snap.ImagesPerSec)
	}
	if math.Abs(snap.AvgDataMS-15) > 0.01 || math.Abs(snap.AvgComputeMS-15) > 0.01 {
		t.Fatalf("unexpected averages data=%.2f compute=%.2f", snap.AvgDataMS, snap.AvgComputeMS)
	}
	if snap.LastLoss != 0.8 {
		t.Fatalf("expected last loss 0.8, got %.2f", snap.LastLoss)
	}
	if w.samples != 0 || w.steps != 0 {
		t.Fatal("window was not reset")
	}
}

func TestEmptyWindowSnapshot(t *testing.T) {
	var w Window
	snap := w.Snapshot()
	if snap.ImagesPerSec != 0 || snap.AvgDataMS != 0 || snap.AvgComputeMS != 0 {
		t.Fatalf("empty window produced %+v", snap)
	}
}

func TestEpochSummary(t *testing.T) {
	var s EpochSummary
	if s.Mean() != 0 || s.StdDev() != 0 {
		t.Fatal("empty summary should report zeros")
	}
	for _, l := range []float64{2.0, 4.0, 6.0} {
		s.Add(l)
	}
	if s.Steps() != 3 {
		t.Fatalf("steps=%d, want 3", s.Steps())
	}
	if math.Abs(s.Mean()-4.0) > 1e-9 {
		t.Fatalf("mean=%.4f, want 4", s.Mean())
	}
	if math.Abs(s.StdDev()-2.0) > 1e-9 {
		t.Fatalf("stddev=%.4f, want 2", s.StdDev())
	}
}
