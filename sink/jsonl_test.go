package sink

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestJsonlSinkWritesOneLinePerSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s := NewJsonlSink(path)

	ok := snap("dev1", true)
	ok.BlocksRead = 3
	ok.DurationMS = 12.5
	if err := s.Write(ok); err != nil {
		t.Fatalf("Write: %v", err)
	}
	failed := snap("dev1", false)
	if err := s.Write(failed); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening written file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var records []jsonlRecord
	for scanner.Scan() {
		var rec jsonlRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshaling line: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) != 2 {
		t.Fatalf("got %d lines, want 2", len(records))
	}

	first := records[0]
	if first.DeviceID != "dev1" || first.Model != "M" {
		t.Fatalf("unexpected record: %+v", first)
	}
	if !first.OK {
		t.Fatal("expected first record ok=true")
	}
	if first.BlocksRead != 3 || first.DurationMS != 12.5 {
		t.Fatalf("unexpected numeric fields: %+v", first)
	}
	if first.Error != nil {
		t.Fatalf("expected nil error field, got %v", *first.Error)
	}

	second := records[1]
	if second.OK {
		t.Fatal("expected second record ok=false")
	}
	if second.Error == nil || *second.Error != "boom" {
		t.Fatalf("expected error field %q, got %v", "boom", second.Error)
	}
}

func TestJsonlSinkCloseIsNoOp(t *testing.T) {
	s := NewJsonlSink(filepath.Join(t.TempDir(), "out.jsonl"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestJsonlSinkAppendsAcrossMultipleSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.jsonl")
	a := NewJsonlSink(path)
	b := NewJsonlSink(path)

	if err := a.Write(snap("dev1", true)); err != nil {
		t.Fatalf("Write a: %v", err)
	}
	if err := b.Write(snap("dev2", true)); err != nil {
		t.Fatalf("Write b: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening file: %v", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		count++
	}
	if count != 2 {
		t.Fatalf("got %d lines, want 2 (raw bytes: %q)", count, string(data))
	}
}
