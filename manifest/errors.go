// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import "fmt"

// ValidationError rejects an operation before any write is issued:
// required draft fields are missing or the target does not exist in
// the current snapshot.
type ValidationError struct {
	// Field names what failed validation ("quantity", "seat", "edit").
	Field string
	// Reason is the human-readable explanation.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest: invalid %s: %s", e.Field, e.Reason)
}
