// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package main

import "github.com/pulsewatch/pulsewatch/cmd"

func main() {
	cmd.Execute()
}
