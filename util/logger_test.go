package util

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLoggerWritesTaggedFile(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { Logger = log.Default() })

	if err := InitLogger(dir, "resnet50"); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	Logger.Printf("epoch=0 loss=1.0")

	data, err := os.ReadFile(filepath.Join(dir, "train_resnet50.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "resnet50: ") || !strings.Contains(s, "epoch=0 loss=1.0") {
		t.Fatalf("unexpected log contents %q", s)
	}
}

func TestCurveRecord(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { Curve = &CurveLogger{} })

	if err := InitCurve(dir, "resnet50"); err != nil {
		t.Fatalf("InitCurve: %v", err)
	}
	Curve.Record(0, 1.5, 2.5, 0.25)
	Curve.Record(1, 1.25, 2.0, 0.5)

	data, err := os.ReadFile(filepath.Join(dir, "curves_resnet50.txt"))
	if err != nil {
		t.Fatalf("read curves: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d records, want 2", len(lines))
	}
	if lines[0] != "0 1.500000 2.500000 0.250000" {
		t.Fatalf("unexpected record %q", lines[0])
	}
}

func TestUninitializedCurveIsNoop(t *testing.T) {
	var c CurveLogger
	c.Record(0, 1, 2, 3)
}
