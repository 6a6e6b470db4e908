// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the staff console configuration.
//
// Configuration comes from a single YAML file named by the
// ASTRAION_CONFIG environment variable or an explicit --config flag.
// There are no fallbacks or automatic discovery; a missing file is an
// error, not a silent default. The file may contain per-environment
// sections (development, staging, production) that override base
// values when the environment matches.
package config
