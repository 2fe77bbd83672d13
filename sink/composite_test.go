package sink

import (
	"errors"
	"testing"

	"github.com/stationkit/powersdk/runtime"
)

type failingSink struct {
	writeErr error
	closeErr error
	writes   int
	closes   int
}

func (f *failingSink) Write(snapshot runtime.DeviceSnapshot) error {
	f.writes++
	return f.writeErr
}

func (f *failingSink) Close() error {
	f.closes++
	return f.closeErr
}

func TestCompositeSinkFansOutToEveryMember(t *testing.T) {
	a := &failingSink{}
	b := &failingSink{}
	c := NewCompositeSink(a, b)
	if err := c.Write(snap("dev1", true)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if a.writes != 1 || b.writes != 1 {
		t.Fatalf("expected both members written, got a=%d b=%d", a.writes, b.writes)
	}
}

func TestCompositeSinkWriteContinuesPastMemberFailure(t *testing.T) {
	a := &failingSink{writeErr: errors.New("disk full")}
	b := &failingSink{}
	c := NewCompositeSink(a, b)
	err := c.Write(snap("dev1", true))
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if b.writes != 1 {
		t.Fatal("expected second member to still receive the write")
	}
}

func TestCompositeSinkCloseAggregatesFailures(t *testing.T) {
	a := &failingSink{closeErr: errors.New("close failed")}
	b := &failingSink{}
	c := NewCompositeSink(a, b)
	err := c.Close()
	if err == nil {
		t.Fatal("expected aggregated close error")
	}
	if a.closes != 1 || b.closes != 1 {
		t.Fatalf("expected both members closed, got a=%d b=%d", a.closes, b.closes)
	}
}

func TestCompositeSinkWriteSucceedsWhenAllMembersSucceed(t *testing.T) {
	c := NewCompositeSink(&failingSink{}, &failingSink{})
	if err := c.Write(snap("dev1", true)); err != nil {
		t.Fatalf("Write: %v", err)
	}
}
