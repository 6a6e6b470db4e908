// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// astraion-manifest prints a trip's seat manifest and capacity
// counters from the booking service.
//
// With --follow it keeps the trip's live sync channel open and
// reprints whenever another session mutates the trip. Output is plain
// text; this is an operator tool, not the staff console.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/astraion-travel/astraion/api"
	"github.com/astraion-travel/astraion/ledger"
	"github.com/astraion-travel/astraion/lib/config"
	"github.com/astraion-travel/astraion/livesync"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "astraion-manifest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, tripID string
	var follow, verbose bool

	flagSet := pflag.NewFlagSet("astraion-manifest", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to astraion.yaml (default: $ASTRAION_CONFIG)")
	flagSet.StringVar(&tripID, "trip", "", "trip id to open (required)")
	flagSet.BoolVar(&follow, "follow", false, "stay connected and reprint on live updates")
	flagSet.BoolVar(&verbose, "verbose", false, "enable debug logging")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if tripID == "" {
		return fmt.Errorf("--trip is required")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	timeout, err := cfg.Service.Timeout()
	if err != nil {
		return err
	}

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.Service.BaseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	view := ledger.New(client, logger)
	if err := view.Refresh(ctx, tripID); err != nil {
		return err
	}
	printManifest(os.Stdout, view)

	if !follow {
		return nil
	}

	channel, err := livesync.Open(livesync.Config{
		URL: tripChannelURL(cfg.Service, tripID),
		RefreshFunc: func(ctx context.Context, note livesync.Notification) {
			if err := view.Refresh(ctx, tripID); err != nil {
				logger.Warn("refresh after notification failed", "error", err)
				return
			}
			printManifest(os.Stdout, view)
		},
		StateFunc: func(state livesync.State) {
			logger.Info("live sync state changed", "state", state)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer channel.Close()

	<-ctx.Done()
	return nil
}

// tripChannelURL builds the trip's websocket endpoint. When no
// live_sync_url is configured the HTTP base is reused with the scheme
// swapped to its websocket equivalent.
func tripChannelURL(service config.ServiceConfig, tripID string) string {
	base := service.LiveSyncURL
	if base == "" {
		base = service.BaseURL
		base = strings.Replace(base, "https://", "wss://", 1)
		base = strings.Replace(base, "http://", "ws://", 1)
	}
	return strings.TrimRight(base, "/") + "/ws/trips/" + tripID + "/"
}

// printManifest writes the trip header, counters, and seat rows.
func printManifest(w io.Writer, view *ledger.Ledger) {
	trip := view.Trip()
	if trip == nil {
		return
	}
	counts := view.Counts()

	fmt.Fprintf(w, "%s %s -> %s (%s)\n", trip.TripDate, trip.Origin, trip.Destination, trip.ID)
	fmt.Fprintf(w, "capacity %d  booked %d  available %d  cancelled %d\n\n",
		counts.Capacity, counts.Booked, counts.Available, counts.Cancelled)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEAT\tSTATUS\tPASSENGER")
	for _, seat := range view.Seats() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", seat.SeatNo, seatStatus(seat), passengerLabel(seat))
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func seatStatus(seat api.Seat) string {
	if seat.Assignment == nil {
		return "free"
	}
	return string(seat.Assignment.Status)
}

func passengerLabel(seat api.Seat) string {
	assignment := seat.Assignment
	if assignment == nil {
		return "-"
	}
	if assignment.PassengerClientID != nil {
		return "client " + *assignment.PassengerClientID
	}
	name := strings.TrimSpace(assignment.FirstName + " " + assignment.LastName)
	if name == "" {
		return "-"
	}
	if assignment.Phone != "" {
		return name + " (" + assignment.Phone + ")"
	}
	return name
}
