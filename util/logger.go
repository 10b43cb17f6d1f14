package util

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Logger is the process logger. Until InitLogger runs it is the stdlib
// default, so library code can log unconditionally.
var Logger = log.Default()

// InitLogger routes Logger to stderr plus <dir>/train_<tag>.log.
func InitLogger(dir, tag string) error {
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("train_%s.log", tag)))
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	Logger = log.New(io.MultiWriter(os.Stderr, f), tag+": ", log.LstdFlags)
	return nil
}

// CurveLogger appends one "epoch train_loss val_loss val_acc" record per
// epoch for offline plotting. A zero CurveLogger discards records.
type CurveLogger struct {
	l *log.Logger
}

// Curve is the process curve logger, a no-op until InitCurve runs.
var Curve = &CurveLogger{}

// InitCurve points Curve at <dir>/curves_<tag>.txt.
func InitCurve(dir, tag string) error {
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("curves_%s.txt", tag)))
	if err != nil {
		return fmt.Errorf("create curve file: %w", err)
	}
	Curve = &CurveLogger{l: log.New(f, "", 0)}
	return nil
}

// Record appends one epoch record.
func (c *CurveLogger) Record(epoch int, trainLoss, valLoss, valAcc float64) {
	if c == nil || c.l == nil {
		return
	}
	c.l.Printf("%d %.6f %.6f %.6f", epoch, trainLoss, valLoss, valAcc)
}
