// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"hash/fnv"
)

// agentPalette is the fixed set of colors assigned to agents. Hex values
// degrade gracefully on low-color terminals.
var agentPalette = []string{
	"#7D56F4", // purple
	"#04B575", // green
	"#F25D94", // pink
	"#ECFD65", // yellow
	"#5A9CF8", // blue
	"#FF8C42", // orange
	"#2DD4BF", // teal
	"#E36CF0", // magenta
}

// ColorFor deterministically assigns a palette color to an agent id. The same
// agent always gets the same color across restarts.
func ColorFor(agentID string) string {
	if agentID == "" {
		return agentPalette[0]
	}
	h := fnv.New32a()
	h.Write([]byte(agentID))
	return agentPalette[int(h.Sum32())%len(agentPalette)]
}
