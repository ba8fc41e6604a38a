// Package telemetry writes session traces as CSV.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/effects"
	"github.com/Faultbox/glyphcloud/internal/logger"
)

// Row is one sampled frame.
type Row struct {
	Frame          int     `csv:"frame"`
	Elapsed        float32 `csv:"elapsed"`
	Instances      int     `csv:"instances"`
	Entropy        float32 `csv:"entropy"`
	ChaosEvents    int     `csv:"chaos_events"`
	Active         string  `csv:"active"`
	Focus          string  `csv:"focus"`
	Intensity      float32 `csv:"intensity"`
	GlowStrength   float32 `csv:"glow_strength"`
	GlowRadius     float32 `csv:"glow_radius"`
	Hue            float32 `csv:"hue"`
	Color          string  `csv:"color"`
	DisperseAmount float32 `csv:"disperse_amount"`
	FlowProgress   float32 `csv:"flow_progress"`
	Returning      bool    `csv:"returning"`
}

// NewRow fills the effect columns of a row from an engine snapshot.
func NewRow(frame int, elapsed float32, s effects.Snapshot) Row {
	return Row{
		Frame:          frame,
		Elapsed:        elapsed,
		Active:         strings.Join(s.ActiveNames(), "|"),
		Focus:          s.Focus,
		Intensity:      s.Live.Intensity,
		GlowStrength:   s.Visual.GlowStrength,
		GlowRadius:     s.Visual.GlowRadius,
		Hue:            s.Visual.Hue,
		Color:          s.Visual.Color().Hex(),
		DisperseAmount: s.DisperseAmount,
		FlowProgress:   s.FlowProgress,
		Returning:      s.Returning,
	}
}

// Recorder appends rows to telemetry.csv every Interval frames. A nil
// Recorder is valid and records nothing.
type Recorder struct {
	log      *zap.Logger
	dir      string
	interval int
	file     *os.File

	headerWritten bool
	rows          int
}

// NewRecorder creates the output directory and telemetry.csv. It returns
// nil when dir is empty.
func NewRecorder(dir string, interval int) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	r := &Recorder{
		log:      logger.Named(logger.Telemetry),
		dir:      dir,
		interval: max(interval, 1),
		file:     f,
	}
	r.log.Info("recording telemetry", zap.String("dir", dir), zap.Int("interval_frames", r.interval))
	return r, nil
}

// WriteConfig saves the session config next to the trace.
func (r *Recorder) WriteConfig(cfg *config.Config) error {
	if r == nil {
		return nil
	}
	return cfg.SaveTo(filepath.Join(r.dir, "config.yaml"))
}

// Due reports whether frame should be recorded.
func (r *Recorder) Due(frame int) bool {
	return r != nil && frame%r.interval == 0
}

// Write appends row unconditionally.
func (r *Recorder) Write(row Row) error {
	if r == nil {
		return nil
	}
	records := []Row{row}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	r.rows++
	return nil
}

// Rows returns the number of rows written.
func (r *Recorder) Rows() int {
	if r == nil {
		return 0
	}
	return r.rows
}

// Dir returns the output directory.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// Close closes telemetry.csv.
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.log.Info("telemetry closed", zap.String("dir", r.dir), zap.Int("rows", r.rows))
	return err
}

// ReadRows loads a telemetry.csv written by a Recorder.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening telemetry: %w", err)
	}
	defer f.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("reading telemetry: %w", err)
	}
	return rows, nil
}
