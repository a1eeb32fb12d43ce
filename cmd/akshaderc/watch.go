package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

// runWatch compiles the given sources, then watches them (and their
// includes) and recompiles whenever a file changes. Ctrl+C stops.
func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	entry := fs.String("entry", "main", "Entry point function name")
	stageName := fs.String("stage", "pixel", "Shader stage (vertex, pixel, compute, ...)")
	sweep := fs.Duration("sweep", 2*time.Second, "Interval between recompile sweeps")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("watch expects at least one source file")
	}

	stage, err := models.ParseShaderStage(*stageName)
	if err != nil {
		return err
	}

	if !config.HotReload.Enabled {
		logger.Warn().Msg("Hot reload disabled in configuration, enabling for watch session")
		config.HotReload.Enabled = true
	}

	manager, db, err := newManager()
	if err != nil {
		return err
	}
	defer func() {
		manager.Stop()
		if db != nil {
			db.Close()
		}
	}()
	manager.Start()

	for _, sourcePath := range fs.Args() {
		request := models.CompileRequest{
			SourcePath: sourcePath,
			EntryPoint: *entry,
			Stage:      stage,
		}
		if _, err := manager.CompileShader(request); err != nil {
			logger.Error().Str("path", sourcePath).Err(err).Msg("Initial compile failed")
		}
	}

	logger.Info().Int("sources", fs.NArg()).Msg("Watching - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*sweep)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			logger.Info().Msg("Interrupt signal received")
			return nil
		case <-ticker.C:
			for _, result := range manager.ForceRecompileAll() {
				if result.Err != nil {
					logger.Error().
						Str("shader", result.Request.ShaderName()).
						Err(result.Err).
						Msg("Recompile failed")
					continue
				}
				logger.Info().
					Str("shader", result.Shader.Name).
					Int64("elapsed_ms", result.Duration.Milliseconds()).
					Msg("Recompiled")
			}
		}
	}
}
