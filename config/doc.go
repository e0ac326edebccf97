// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the bridge.
//
// Configuration is loaded from a single file specified by either the
// BTOP4WINRESONITE_CONFIG environment variable (via [Load]) or a
// --config flag (via [LoadFile]). There are no fallbacks and no
// automatic file search.
//
// The configuration file supports environment-specific sections
// (development, production) that override base values when
// [Config].Environment matches.
//
// Key exports:
//
//   - [Config] -- ListenAddress, Grid, Log
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
