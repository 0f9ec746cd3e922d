package snapshot

import (
	"testing"
	"time"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		Temporal: &TemporalFacet{Hour: 9, DayOfWeek: 1, Slot: SlotMorning},
		Connectivity: &ConnectivityFacet{
			Kind:      ConnectionWifi,
			NetworkID: "Office",
		},
		Peripherals: &PeripheralFacet{
			DeviceIDs:  []string{"dev-1"},
			Categories: []PeripheralCategory{PeripheralHeadphones},
		},
		DeviceState: &DeviceStateFacet{Charging: false, Orientation: OrientationPortrait},
		CapturedAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestTimestampOnlyChangeIsUnchanged(t *testing.T) {
	a := baseSnapshot()
	b := baseSnapshot()
	b.CapturedAt = b.CapturedAt.Add(45 * time.Minute)

	if changed := ChangedFacets(a, b); len(changed) != 0 {
		t.Fatalf("timestamp drift alone reported as change: %v", changed)
	}
}

func TestChangedFacetsPerField(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Snapshot)
		want   FacetField
	}{
		{"hour", func(s *Snapshot) { s.Temporal.Hour = 10 }, FieldHour},
		{"dow", func(s *Snapshot) { s.Temporal.DayOfWeek = 2 }, FieldDayOfWeek},
		{"slot", func(s *Snapshot) { s.Temporal.Slot = SlotEvening }, FieldTimeSlot},
		{"kind", func(s *Snapshot) { s.Connectivity.Kind = ConnectionMobile }, FieldConnectionKind},
		{"network", func(s *Snapshot) { s.Connectivity.NetworkID = "Home" }, FieldNetworkID},
		{"devices", func(s *Snapshot) { s.Peripherals.DeviceIDs = []string{"dev-2"} }, FieldDeviceSet},
		{"categories", func(s *Snapshot) {
			s.Peripherals.Categories = []PeripheralCategory{PeripheralCar}
		}, FieldCategorySet},
		{"charging", func(s *Snapshot) { s.DeviceState.Charging = true }, FieldCharging},
		{"orientation", func(s *Snapshot) { s.DeviceState.Orientation = OrientationLandscape }, FieldOrientation},
	}

	for _, c := range cases {
		a := baseSnapshot()
		b := baseSnapshot()
		c.mutate(&b)
		changed := ChangedFacets(a, b)
		found := false
		for _, f := range changed {
			if f == c.want {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: expected %s in changed set, got %v", c.name, c.want, changed)
		}
	}
}

func TestChangedFacetsAbsentFacet(t *testing.T) {
	a := baseSnapshot()
	b := baseSnapshot()
	b.Connectivity = nil

	changed := ChangedFacets(a, b)
	if len(changed) != 2 {
		t.Fatalf("facet appearing/disappearing should flag both fields, got %v", changed)
	}
}

func TestDeviceSetOrderInsensitive(t *testing.T) {
	a := baseSnapshot()
	a.Peripherals.DeviceIDs = []string{"dev-1", "dev-2"}
	b := baseSnapshot()
	b.Peripherals.DeviceIDs = []string{"dev-2", "dev-1"}

	if changed := ChangedFacets(a, b); len(changed) != 0 {
		t.Fatalf("set comparison must ignore order: %v", changed)
	}
}

func TestSharedFacets(t *testing.T) {
	a := baseSnapshot()
	b := baseSnapshot()
	b.Temporal.Hour = 23
	b.Temporal.Slot = SlotNight

	shared := ChangedFacets(a, b)
	if len(shared) != 2 {
		t.Fatalf("expected exactly hour+slot changed, got %v", shared)
	}

	fields := SharedFacets(a, b)
	for _, f := range fields {
		if f == FieldHour || f == FieldTimeSlot {
			t.Fatalf("changed field %s reported as shared", f)
		}
	}
	// 9 comparable fields, 2 changed.
	if len(fields) != 7 {
		t.Fatalf("shared fields = %d, want 7", len(fields))
	}
}
