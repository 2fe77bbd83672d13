package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stationkit/powersdk/config"
	"github.com/stationkit/powersdk/runtime"
	"github.com/stationkit/powersdk/sink"
)

func newRuntimeCmd() *cobra.Command {
	var configPath string
	var dryRun bool
	var once bool
	var connect bool

	cmd := &cobra.Command{
		Use:   "runtime",
		Short: "Run N devices from a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuntime(configPath, dryRun, once, connect)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to runtime.yaml")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show resolved pipeline, no I/O")
	cmd.Flags().BoolVar(&once, "once", false, "run one poll cycle")
	cmd.Flags().BoolVar(&connect, "connect", false, "connect/disconnect transport during --once")
	cmd.MarkFlagRequired("config")

	return cmd
}

func runRuntime(configPath string, dryRun, once, connect bool) error {
	if !dryRun && !once {
		fmt.Println("Error: specify --dry-run or --once")
		return &exitError{code: 2}
	}

	reg, err := runtime.FromConfig(configPath, nil)
	if err != nil {
		fmt.Printf("Error: failed to load config %q: %v\n", configPath, err)
		return &exitError{code: 2}
	}

	if dryRun {
		summaries := reg.DryRun(nil)
		fmt.Println(formatDryRunTable(summaries))
		return nil
	}

	return runOnce(configPath, reg, connect)
}

func runOnce(configPath string, reg *runtime.RuntimeRegistry, connect bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Error: failed to load config %q: %v\n", configPath, err)
		return &exitError{code: 2}
	}
	configuredSinks, err := sink.BuildAll(cfg)
	if err != nil {
		fmt.Printf("Error: failed to build sinks from %q: %v\n", configPath, err)
		return &exitError{code: 2}
	}

	fallback := sink.NewMemorySink(0)
	snapshots := reg.PollAllOnce(connect, connect)

	for _, snapshot := range snapshots {
		rt := reg.Get(snapshot.DeviceID)
		target := sinkFor(rt, configuredSinks, fallback)
		if err := target.Write(snapshot); err != nil {
			fmt.Printf("Error: sink write failed for %q: %v\n", snapshot.DeviceID, err)
		}
	}

	errored := false
	for _, s := range snapshots {
		if s.OK() {
			fmt.Printf("[%s] OK — %d blocks, state: %d fields, %.1fms\n",
				s.DeviceID, s.BlocksRead, len(s.State), s.DurationMS)
		} else {
			errored = true
			fmt.Printf("[%s] ERROR — %v\n", s.DeviceID, s.Error)
		}
	}

	if stored := fallback.AllLast(); len(stored) > 0 {
		fmt.Printf("(MemorySink: %d device(s) state retained)\n", len(stored))
	}

	if errored {
		return &exitError{code: 1}
	}
	return nil
}

func sinkFor(rt *runtime.DeviceRuntime, configured map[string]sink.Sink, fallback sink.Sink) sink.Sink {
	if rt == nil || rt.SinkName == "" {
		return fallback
	}
	if s, ok := configured[rt.SinkName]; ok {
		return s
	}
	return fallback
}
