package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"teateonair/internal/app"
	"teateonair/internal/audio"
	"teateonair/internal/config"
	"teateonair/internal/logging"
	"teateonair/internal/pages"
	"teateonair/internal/platform"
	"teateonair/internal/playback"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logFile, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	player, err := audio.NewPlayer(cfg.UserAgent, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}

	// Media keys are optional; run without them if the bus is unavailable.
	var surface playback.Surface
	mpris, err := platform.NewMPRIS(cfg.StationName, cfg.ArtworkURL)
	if err != nil {
		logger.Warn().Err(err).Msg("media controls unavailable")
		mpris = nil
	} else {
		defer mpris.Close()
		surface = mpris
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := pages.New(pages.Options{
		ScheduleURL:      cfg.ScheduleURL,
		ProgramsURL:      cfg.ProgramsURL,
		ProgramsSelector: cfg.ProgramsSelector,
		UserAgent:        cfg.UserAgent,
		Logger:           logger,
	})
	if cfg.PrefetchPages() {
		go cache.Prefetch(ctx)
	}

	var program *tea.Program
	ctrl := playback.New(playback.Options{
		StreamURL: cfg.StreamURL,
		Station:   cfg.StationName,
		Player:    player,
		NewPoller: newPollerFactory(cfg.StatusURL, cfg.UserAgent, logger),
		Surface:   surface,
		Logger:    logger,
		OnTrack: func(info audio.TrackInfo) {
			program.Send(app.TrackUpdateMsg{Track: info})
		},
	})
	defer ctrl.Stop()

	model := app.New(app.Options{
		Playback: ctrl,
		Pages:    cache,
		Station:  cfg.StationName,
	})
	program = tea.NewProgram(model)
	if mpris != nil {
		mpris.SetSender(program)
	}

	logger.Info().Str("stream", cfg.StreamURL).Msg("starting")
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func newPollerFactory(statusURL, userAgent string, logger zerolog.Logger) func() playback.Poller {
	return func() playback.Poller {
		return audio.NewMetadataPoller(statusURL, userAgent, logger)
	}
}
