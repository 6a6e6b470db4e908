// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// astraion-mock-service is an in-memory booking service for local
// development and demos. It implements the same REST contract and
// per-trip websocket push as the real service: capacity enforcement
// with the manager override header, seat assignment in ascending seat
// order, and a notification broadcast on every mutation.
//
// State lives in memory and vanishes on exit. One trip is seeded at
// startup with a configurable capacity.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "astraion-mock-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var listen string
	var capacity int
	var verbose bool

	flagSet := pflag.NewFlagSet("astraion-mock-service", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", "127.0.0.1:8000", "address to listen on")
	flagSet.IntVar(&capacity, "capacity", 10, "capacity of the seeded trip")
	flagSet.BoolVar(&verbose, "verbose", false, "enable debug logging")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if capacity < 0 {
		return fmt.Errorf("--capacity must not be negative")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	svc := newService(capacity, logger)
	trip := svc.seededTrip()
	logger.Info("seeded trip",
		"trip_id", trip.ID,
		"route", trip.Origin+" to "+trip.Destination,
		"capacity", trip.Capacity,
	)

	server := &http.Server{
		Addr:         listen,
		Handler:      svc.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
