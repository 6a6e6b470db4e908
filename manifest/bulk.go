// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"strings"
)

// BulkRow is one parsed line of a pasted passenger list.
type BulkRow struct {
	// Line is the 1-based line number in the pasted text.
	Line       int
	FirstName  string
	LastName   string
	Phone      string
	PassportID string
}

// RowError records a row that reached the service and was rejected.
type RowError struct {
	// Line is the row's 1-based line number in the pasted text.
	Line int
	// SeatNo is the free seat the row was paired with.
	SeatNo int
	Err    error
}

// BulkReport summarizes a bulk import.
type BulkReport struct {
	// Applied counts rows written successfully.
	Applied int
	// Dropped counts trailing rows that had no free seat left in the
	// snapshot taken at import start.
	Dropped int
	// RowErrors lists rows the service rejected. Later rows still ran.
	RowErrors []RowError
}

// ParseBulk splits pasted text into rows. One passenger per line,
// fields in the fixed column order first name, last name, phone,
// passport, separated by commas or semicolons. An empty cell keeps its
// column, so `Maria,,6940001234` is a phone with no last name, not a
// shifted name. Missing trailing fields are fine, blank lines are
// skipped, fields are trimmed.
func ParseBulk(pasted string) []BulkRow {
	var rows []BulkRow
	for i, line := range strings.Split(pasted, "\n") {
		line = strings.ReplaceAll(line, ";", ",")
		row := BulkRow{Line: i + 1}
		blank := true
		for j, field := range strings.Split(line, ",") {
			field = strings.TrimSpace(field)
			if field != "" {
				blank = false
			}
			switch j {
			case 0:
				row.FirstName = field
			case 1:
				row.LastName = field
			case 2:
				row.Phone = field
			case 3:
				row.PassportID = field
			}
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// BulkImport parses pasted passenger text and seats the rows on the
// trip's free seats. The free-seat list is snapshotted once at the
// start, in ascending seat order; row i pairs with entry i. Rows beyond
// the snapshot are dropped, not erred. Each row is applied sequentially
// through SaveSeatOccupant, so linking prompts and capacity conflicts
// surface per row, in order, and a rejected row never skips its
// successors' prompts.
//
// The only returned error is a context cancellation mid-import; service
// rejections are reported per row in the BulkReport.
func (o *Orchestrator) BulkImport(ctx context.Context, pasted string, override bool) (BulkReport, error) {
	rows := ParseBulk(pasted)
	free := o.ledger.FreeSeats()

	var report BulkReport
	for i, row := range rows {
		if i >= len(free) {
			report.Dropped = len(rows) - i
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		seatNo := free[i].SeatNo
		_, err := o.SaveSeatOccupant(ctx, seatNo, OccupantEdit{
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			Phone:      row.Phone,
			PassportID: row.PassportID,
		}, override)
		if err != nil {
			o.logger.Warn("bulk row rejected",
				"trip_id", o.tripID,
				"line", row.Line,
				"seat_no", seatNo,
				"error", err,
			)
			report.RowErrors = append(report.RowErrors, RowError{Line: row.Line, SeatNo: seatNo, Err: err})
			continue
		}
		report.Applied++
	}

	o.logger.Info("bulk import finished",
		"trip_id", o.tripID,
		"rows", len(rows),
		"applied", report.Applied,
		"dropped", report.Dropped,
		"rejected", len(report.RowErrors),
	)
	return report, nil
}
