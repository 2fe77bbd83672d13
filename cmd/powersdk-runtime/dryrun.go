package main

import (
	"fmt"
	"strings"

	"github.com/stationkit/powersdk/runtime"
)

// formatDryRunTable renders an ASCII pipeline summary, mirroring the
// original CLI's ``_format_dry_run_table``: a fixed-width table of
// per-device resolution, a write-capable count, and — only when at
// least one device uses a named pipeline template — a second "Stage
// Resolution" section.
func formatDryRunTable(summaries []runtime.DeviceSummary) string {
	var b strings.Builder
	b.WriteString("Device Pipeline (dry-run):\n")

	fmt.Fprintf(&b, "  %-18s  %-7s  %-8s  %-9s  %-9s  %13s  %-9s  %-9s  %-10s\n",
		"device_id", "vendor", "protocol", "profile", "transport", "poll_interval", "can_write", "streaming", "sink")
	fmt.Fprintf(&b, "  %-18s  %-7s  %-8s  %-9s  %-9s  %13s  %-9s  %-9s  %-10s\n",
		strings.Repeat("-", 18), strings.Repeat("-", 7), strings.Repeat("-", 8),
		strings.Repeat("-", 9), strings.Repeat("-", 9), strings.Repeat("-", 13),
		strings.Repeat("-", 9), strings.Repeat("-", 9), strings.Repeat("-", 10))

	writeCapable := 0
	for _, s := range summaries {
		if s.CanWrite {
			writeCapable++
		}
		fmt.Fprintf(&b, "  %-18s  %-7s  %-8s  %-9s  %-9s  %12ds  %-9s  %-9s  %-10s\n",
			truncate(s.DeviceID, 18), s.Vendor, s.Protocol, s.ProfileID, s.TransportKey,
			int(s.PollInterval.Seconds()), yesNo(s.CanWrite), yesNo(s.SupportsStreaming), s.Sink)
	}

	fmt.Fprintf(&b, "\n%d device(s) registered. %d write-capable.\n", len(summaries), writeCapable)

	hasPipeline := false
	for _, s := range summaries {
		if s.PipelineName != "" && s.PipelineName != "direct" {
			hasPipeline = true
			break
		}
	}
	if hasPipeline {
		b.WriteString("\nStage Resolution:\n")
		fmt.Fprintf(&b, "  %-18s  %-14s  %-4s  %-12s  %-5s\n", "device_id", "pipeline", "mode", "model", "write")
		fmt.Fprintf(&b, "  %-18s  %-14s  %-4s  %-12s  %-5s\n",
			strings.Repeat("-", 18), strings.Repeat("-", 14), strings.Repeat("-", 4), strings.Repeat("-", 12), strings.Repeat("-", 5))
		for _, s := range summaries {
			fmt.Fprintf(&b, "  %-18s  %-14s  %-4s  %-12s  %-5s\n",
				truncate(s.DeviceID, 18), truncate(s.PipelineName, 14), truncate(s.Mode, 4), truncate(s.Model, 12), yesNo(s.CanWrite))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
