// Package main runs a headless glyph cloud session with the chaos driver and
// writes CSV telemetry.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/logger"
	"github.com/Faultbox/glyphcloud/internal/rig"
	"github.com/Faultbox/glyphcloud/internal/scene"
	"github.com/Faultbox/glyphcloud/internal/telemetry"
)

var (
	flagFrames   = flag.Int("frames", 60*180, "Number of frames to simulate")
	flagFPS      = flag.Int("fps", 60, "Simulated frame rate")
	flagStopAt   = flag.Int("stop-at", 0, "Stop chaos at this frame and let the fade run (0 = never)")
	flagNoChaos  = flag.Bool("no-chaos", false, "Do not start the chaos driver")
	flagRings    = flag.Int("rings", 24, "Creature body rings")
	flagSegments = flag.Int("segments", 16, "Creature vertices per ring")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.Telemetry.OutputDir == "" {
		cfg.Telemetry.OutputDir = "glyphsim-" + time.Now().Format("20060102-150405")
	}

	mesh, clip := rig.NewCreature(rig.CreatureOptions{Rings: *flagRings, Segments: *flagSegments})
	sc, err := scene.New(cfg, mesh, clip)
	if err != nil {
		return err
	}

	rec, err := telemetry.NewRecorder(cfg.Telemetry.OutputDir, cfg.Telemetry.IntervalFrames)
	if err != nil {
		return err
	}
	defer rec.Close()
	if err := rec.WriteConfig(cfg); err != nil {
		return err
	}

	if !*flagNoChaos {
		sc.StartChaos()
	}

	dt := 1 / float32(max(*flagFPS, 1))
	start := time.Now()
	var (
		peakActive int
		fadeFrames int
		transforms int
	)
	for frame := 0; frame < *flagFrames; frame++ {
		if *flagStopAt > 0 && frame == *flagStopAt {
			sc.StopChaos()
		}
		transforms += len(sc.Update(dt))

		snap := sc.Snapshot()
		peakActive = max(peakActive, len(snap.Effects.ActiveNames()))
		if snap.Effects.Returning {
			fadeFrames++
		}
		if rec.Due(sc.Frame()) {
			if err := rec.Write(sc.TelemetryRow()); err != nil {
				return err
			}
		}
	}

	snap := sc.Snapshot()
	logger.Named(logger.Sim).Info("simulation complete",
		zap.Int("frames", *flagFrames),
		zap.Float32("sim_seconds", sc.Elapsed()),
		zap.Duration("wall", time.Since(start)),
		zap.Int("instances", snap.Instances),
		zap.Int("transforms", transforms),
		zap.Int("chaos_events", snap.Chaos.Events),
		zap.Float32("entropy", snap.Chaos.Entropy),
		zap.Int("peak_active", peakActive),
		zap.Int("fade_frames", fadeFrames),
		zap.Int("rows", rec.Rows()),
		zap.String("output", rec.Dir()),
	)
	return nil
}
