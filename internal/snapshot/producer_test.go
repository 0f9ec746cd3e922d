package snapshot

import (
	"errors"
	"testing"
	"time"
)

type stubProviders struct {
	temporal     *TemporalFacet
	connectivity *ConnectivityFacet
	err          error
	delay        time.Duration
}

func (s *stubProviders) Temporal() (TemporalFacet, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return TemporalFacet{}, s.err
	}
	return *s.temporal, nil
}

func (s *stubProviders) Connectivity() (ConnectivityFacet, error) {
	if s.err != nil {
		return ConnectivityFacet{}, s.err
	}
	return *s.connectivity, nil
}

func TestSampleMergesFacets(t *testing.T) {
	stub := &stubProviders{
		temporal:     &TemporalFacet{Hour: 9, DayOfWeek: 1, Slot: SlotMorning},
		connectivity: &ConnectivityFacet{Kind: ConnectionWifi, NetworkID: "Office"},
	}
	p := NewProducer(stub, stub, nil, nil, DefaultProducerConfig(), nil)

	snap := p.Sample()
	if snap.Temporal == nil || snap.Temporal.Hour != 9 {
		t.Fatalf("temporal facet missing or wrong: %+v", snap.Temporal)
	}
	if snap.Connectivity == nil || snap.Connectivity.NetworkID != "Office" {
		t.Fatalf("connectivity facet missing or wrong: %+v", snap.Connectivity)
	}
	if snap.Peripherals != nil || snap.DeviceState != nil {
		t.Fatal("nil providers must yield absent facets")
	}
	if snap.CapturedAt.IsZero() {
		t.Fatal("snapshot must carry a capture timestamp")
	}
}

func TestSampleProviderFailureDegradesToAbsence(t *testing.T) {
	stub := &stubProviders{err: errors.New("permission denied")}
	p := NewProducer(stub, stub, nil, nil, DefaultProducerConfig(), nil)

	snap := p.Sample()
	if snap.Temporal != nil || snap.Connectivity != nil {
		t.Fatalf("failed providers must yield absence, got %+v", snap)
	}
}

func TestSampleSlowFacetTimesOutWithoutBlockingOthers(t *testing.T) {
	slow := &stubProviders{
		temporal: &TemporalFacet{Hour: 9},
		delay:    time.Second,
	}
	fast := &stubProviders{
		connectivity: &ConnectivityFacet{Kind: ConnectionMobile},
	}
	p := NewProducer(slow, fast, nil, nil, ProducerConfig{FacetTimeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	snap := p.Sample()
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Fatalf("sample blocked on slow facet: %v", elapsed)
	}
	if snap.Temporal != nil {
		t.Fatal("slow facet should be absent for this pass")
	}
	if snap.Connectivity == nil || snap.Connectivity.Kind != ConnectionMobile {
		t.Fatalf("fast facet blocked by slow one: %+v", snap.Connectivity)
	}
}

func TestClockTemporal(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC) // a Sunday
	c := ClockTemporal{Now: func() time.Time { return fixed }}

	f, err := c.Temporal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Hour != 22 {
		t.Fatalf("hour = %d, want 22", f.Hour)
	}
	if f.DayOfWeek != 7 {
		t.Fatalf("Sunday must map to 7, got %d", f.DayOfWeek)
	}
	if f.Slot != SlotNight {
		t.Fatalf("slot = %s, want %s", f.Slot, SlotNight)
	}
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := NewBus(1)
	for i := 0; i < 10; i++ {
		bus.Publish(EdgeConnectivity) // must not deadlock when full
	}
	select {
	case e := <-bus.Edges():
		if e.Kind != EdgeConnectivity {
			t.Fatalf("unexpected edge %v", e.Kind)
		}
	default:
		t.Fatal("expected one buffered edge")
	}
}
