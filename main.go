package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diodelass/Teamech-Desktop/application"
	"github.com/diodelass/Teamech-Desktop/logging"
	"github.com/diodelass/Teamech-Desktop/metrics"
	"github.com/diodelass/Teamech-Desktop/network"
	"github.com/diodelass/Teamech-Desktop/padfile"
	"github.com/diodelass/Teamech-Desktop/session"
	"github.com/diodelass/Teamech-Desktop/settings"
	"github.com/diodelass/Teamech-Desktop/ui"
)

func main() {
	// ESCAPE must respond immediately; without this the terminal driver
	// delays it waiting to see if more bytes of an escape sequence follow.
	_ = os.Setenv("ESCDELAY", "0")

	cmd := settings.NewRootCommand(run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg settings.Config) error {
	clock := application.RealClock{}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}

	logger, err := logging.NewFileLogger(homeDir, clock)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logger.Close()

	pad, err := padfile.Load(cfg.PadPath)
	if err != nil {
		logger.Printf("fatal: %v", err)
		return err
	}

	conn, err := network.Bind(cfg.LocalPort)
	if err != nil {
		logger.Printf("fatal: %v", err)
		return err
	}
	transport := network.NewTransport(conn)
	defer transport.Close()

	recorder := metrics.New()
	console := ui.New(cfg.ServerAddr.String(), recorder.Snapshot)

	sess := session.New(session.Config{
		ServerAddr: cfg.ServerAddr,
		Pad:        pad,
		Name:       cfg.Name,
		Class:      cfg.Class,
		ShowHex:    cfg.ShowHex,
	}, transport, clock, logger, console, console, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Printf("signal received, shutting down")
		cancel()
	}()

	sessionErrCh := make(chan error, 1)
	go func() {
		sessionErrCh <- sess.Run(ctx)
	}()

	uiErr := console.Run()
	cancel()

	if err := <-sessionErrCh; err != nil && err != context.Canceled {
		logger.Printf("session exited: %v", err)
	}

	return uiErr
}
