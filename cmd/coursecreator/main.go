// cmd/coursecreator/main.go
//
// This is the entry point for the course creator CLI.
//
// Flow:
// 1. Initialize .coursecreator in the project directory and load config
// 2. With -offline, start the local dev gateway and point the client at it
// 3. With -serve, run only the dev gateway until interrupted
// 4. Otherwise launch the TUI around a wizard session

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/kingrea/course-creator/internal/audio"
	"github.com/kingrea/course-creator/internal/config"
	"github.com/kingrea/course-creator/internal/devgateway"
	"github.com/kingrea/course-creator/internal/gateway"
	"github.com/kingrea/course-creator/internal/logbook"
	"github.com/kingrea/course-creator/internal/tui"
	"github.com/kingrea/course-creator/internal/wizard"
)

func main() {
	dir := flag.String("dir", "", "project directory (defaults to the working directory)")
	offline := flag.Bool("offline", false, "run against the built-in dev gateway")
	serve := flag.Bool("serve", false, "only run the dev gateway")
	flag.Parse()

	projectDir := *dir
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fatalf("Error getting working directory: %v", err)
		}
		projectDir = cwd
	}

	if err := config.InitDir(projectDir); err != nil {
		fatalf("Error initializing %s directory: %v", config.ProjectDirName, err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		fatalf("Error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		if err := runDevGateway(ctx, cfg); err != nil {
			fatalf("Error running dev gateway: %v", err)
		}
		return
	}

	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		fatalf("Error opening log: %v", err)
	}
	defer lb.Close()

	if *offline {
		settings := devgateway.SettingsFromConfig(cfg)
		settings.Port = 0
		srv := devgateway.NewServer(settings, devgateway.WithLogger(lb))
		if err := srv.Start(ctx); err != nil {
			fatalf("Error starting dev gateway: %v", err)
		}
		defer shutdown(srv)
		if err := cfg.SetGatewayURL(srv.BaseURL()); err != nil {
			fatalf("Error configuring gateway: %v", err)
		}
	}

	client, err := gateway.NewFromConfig(cfg, lb)
	if err != nil {
		fatalf("Error creating gateway client: %v", err)
	}
	session := wizard.NewSessionFromConfig(cfg, client, lb)
	slot := audio.NewSlot(audio.CommandPlayer{Dir: cfg.AudioDir(), Command: cfg.AudioPlayer()})
	defer slot.Close()

	p := tea.NewProgram(
		tui.NewApp(cfg, session, lb, tui.WithAudio(slot), tui.WithContext(ctx)),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// runDevGateway serves the offline gateway on the configured address until ctx ends.
func runDevGateway(ctx context.Context, cfg *config.Config) error {
	logger := consoleLogger{zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()}
	srv := devgateway.NewServer(devgateway.SettingsFromConfig(cfg), devgateway.WithLogger(logger))
	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Printf("dev gateway ready at %s (ctrl+c to stop)", srv.BaseURL())
	<-ctx.Done()
	shutdown(srv)
	return nil
}

func shutdown(srv *devgateway.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

type consoleLogger struct {
	zerolog.Logger
}

func (l consoleLogger) Printf(format string, args ...any) {
	l.Info().Msgf(format, args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
