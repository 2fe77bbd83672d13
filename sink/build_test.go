package sink

import (
	"path/filepath"
	"testing"

	"github.com/stationkit/powersdk/config"
)

func TestBuildAllBuildsMemoryAndJsonlSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	cfg := &config.Config{
		Sinks: map[string]config.SinkConfig{
			"mem":  {Type: "memory", Opts: map[string]interface{}{"max_len": 5}},
			"file": {Type: "jsonl", Opts: map[string]interface{}{"path": path}},
		},
	}

	built, err := BuildAll(cfg)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if _, ok := built["mem"].(*MemorySink); !ok {
		t.Fatalf("expected MemorySink, got %T", built["mem"])
	}
	if _, ok := built["file"].(*JsonlSink); !ok {
		t.Fatalf("expected JsonlSink, got %T", built["file"])
	}
}

func TestBuildAllResolvesCompositeRefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	cfg := &config.Config{
		Sinks: map[string]config.SinkConfig{
			"mem":  {Type: "memory"},
			"file": {Type: "jsonl", Opts: map[string]interface{}{"path": path}},
			"both": {Type: "composite", Refs: []string{"mem", "file"}},
		},
	}

	built, err := BuildAll(cfg)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	composite, ok := built["both"].(*CompositeSink)
	if !ok {
		t.Fatalf("expected CompositeSink, got %T", built["both"])
	}
	if len(composite.sinks) != 2 {
		t.Fatalf("got %d members, want 2", len(composite.sinks))
	}
}

func TestBuildAllRejectsUnknownType(t *testing.T) {
	cfg := &config.Config{
		Sinks: map[string]config.SinkConfig{
			"weird": {Type: "carrier-pigeon"},
		},
	}
	if _, err := BuildAll(cfg); err == nil {
		t.Fatal("expected an error for an unknown sink type")
	}
}

func TestBuildAllRejectsJsonlWithoutPath(t *testing.T) {
	cfg := &config.Config{
		Sinks: map[string]config.SinkConfig{
			"file": {Type: "jsonl"},
		},
	}
	if _, err := BuildAll(cfg); err == nil {
		t.Fatal("expected an error for a jsonl sink missing 'path'")
	}
}

func TestBuildAllRejectsUnknownCompositeRef(t *testing.T) {
	cfg := &config.Config{
		Sinks: map[string]config.SinkConfig{
			"both": {Type: "composite", Refs: []string{"ghost"}},
		},
	}
	if _, err := BuildAll(cfg); err == nil {
		t.Fatal("expected an error for an unknown composite ref")
	}
}
