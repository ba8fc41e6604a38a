// Package main is the interactive glyph cloud viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/logger"
	"github.com/Faultbox/glyphcloud/internal/rig"
	"github.com/Faultbox/glyphcloud/internal/scene"
	"github.com/Faultbox/glyphcloud/internal/telemetry"
	"github.com/Faultbox/glyphcloud/internal/viewer"
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

	logger.Info("=== glyphcloud ===", zap.String("config", cfg.Source))
	logger.Sugar.Debugf("Config: %+v", cfg)

	mesh, clip := rig.NewCreature(rig.DefaultCreatureOptions())
	sc, err := scene.New(cfg, mesh, clip)
	if err != nil {
		logger.Error("failed to create scene", zap.Error(err))
		os.Exit(1)
	}

	rec, err := telemetry.NewRecorder(cfg.Telemetry.OutputDir, cfg.Telemetry.IntervalFrames)
	if err != nil {
		logger.Error("failed to open telemetry", zap.Error(err))
		os.Exit(1)
	}
	defer rec.Close()
	if err := rec.WriteConfig(cfg); err != nil {
		logger.Warn("failed to write session config", zap.Error(err))
	}

	v, err := viewer.New(cfg, sc, rec)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}
