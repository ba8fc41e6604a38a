package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/effects"
)

func TestNilRecorder(t *testing.T) {
	r, err := NewRecorder("", 10)
	if err != nil || r != nil {
		t.Fatalf("NewRecorder(\"\") = %v, %v; want nil, nil", r, err)
	}
	if r.Due(0) {
		t.Error("nil recorder reported a due frame")
	}
	if err := r.Write(Row{}); err != nil {
		t.Error(err)
	}
	if err := r.WriteConfig(config.Default()); err != nil {
		t.Error(err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}

func TestDue(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), 30)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	tests := []struct {
		frame int
		want  bool
	}{
		{0, true},
		{1, false},
		{29, false},
		{30, true},
		{90, true},
	}
	for _, tt := range tests {
		if got := r.Due(tt.frame); got != tt.want {
			t.Errorf("Due(%d) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestWriteAndReadBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	r, err := NewRecorder(dir, 1)
	if err != nil {
		t.Fatal(err)
	}

	e := effects.New(effects.DefaultOptions())
	e.Activate(effects.Hover)
	e.Activate(effects.Wave)
	e.Select(effects.Wave)

	for frame := 0; frame < 3; frame++ {
		row := NewRow(frame, float32(frame)/60, e.Snapshot())
		row.Entropy = 0.25
		if err := r.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.WriteConfig(config.Default()); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadRows(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || r.Rows() != 3 {
		t.Fatalf("read %d rows, recorder counted %d; want 3", len(rows), r.Rows())
	}
	last := rows[2]
	if last.Frame != 2 || last.Active != "hover|wave" || last.Focus != "wave" || last.Entropy != 0.25 {
		t.Errorf("last row = %+v", last)
	}
	if len(last.Color) != 7 || last.Color[0] != '#' {
		t.Errorf("colour = %q, want #rrggbb", last.Color)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
}

func TestReadRowsMissing(t *testing.T) {
	if _, err := ReadRows(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
