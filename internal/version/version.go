// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package version

// Version is set at build time via -ldflags.
var Version = "dev"
