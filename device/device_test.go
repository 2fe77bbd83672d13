package device

import "testing"

func TestStateSetAndGetState(t *testing.T) {
	s := NewState()
	s.Set("grid.frequency", 50.0)
	s.Set("grid.phase_1_voltage", 230.0)

	got := s.GetState()
	if got["grid.frequency"] != 50.0 {
		t.Fatalf("got %v, want 50.0", got["grid.frequency"])
	}
	if len(got) != 2 {
		t.Fatalf("got %d attributes, want 2", len(got))
	}
}

func TestGetGroupStateStripsPrefixAndAddsLastUpdate(t *testing.T) {
	s := NewState()
	s.Set("grid.frequency", 50.0)
	s.Set("cells.cell_voltages", []interface{}{3.3, 3.3})
	s.TouchGroup(GroupGrid)

	grid := s.GetGroupState(GroupGrid)
	if grid["frequency"] != 50.0 {
		t.Fatalf("got %v, want 50.0", grid["frequency"])
	}
	if _, ok := grid["cell_voltages"]; ok {
		t.Fatal("cells attribute leaked into grid group state")
	}
	if _, ok := grid["last_update"]; !ok {
		t.Fatal("expected last_update to be present after TouchGroup")
	}
}

func TestGetGroupStateWithoutTouchHasNoLastUpdate(t *testing.T) {
	s := NewState()
	s.Set("battery.soc", 80.0)

	got := s.GetGroupState(GroupBattery)
	if _, ok := got["last_update"]; ok {
		t.Fatal("expected no last_update before any TouchGroup call")
	}
}

func TestProfileAvailableGroupsSorted(t *testing.T) {
	groups := BuiltinProfile.AvailableGroups()
	want := []string{"cells", "core", "grid", "inverter"}
	if len(groups) != len(want) {
		t.Fatalf("got %v, want %v", groups, want)
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Fatalf("got %v, want %v", groups, want)
		}
	}
}

func TestProfileBlockIDsDedupedAndSorted(t *testing.T) {
	ids := BuiltinProfile.BlockIDs()
	want := []int{100, 1300, 1400, 6100}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}
