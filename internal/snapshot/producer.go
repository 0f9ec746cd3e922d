package snapshot

import (
	"time"

	"go.uber.org/zap"
)

// #region config

// ProducerConfig holds sampling knobs.
type ProducerConfig struct {
	FacetTimeout time.Duration // per-facet budget; a slow facet becomes unavailable
}

// DefaultProducerConfig returns sensible defaults.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		FacetTimeout: 250 * time.Millisecond,
	}
}

// #endregion config

// #region producer

// Producer samples the four context facets concurrently and merges them into
// one timestamped snapshot. Any provider may be nil, in which case its facet
// is always absent.
type Producer struct {
	temporal     TemporalProvider
	connectivity ConnectivityProvider
	peripherals  PeripheralProvider
	deviceState  DeviceStateProvider
	config       ProducerConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewProducer creates a Producer. logger may be nil.
func NewProducer(
	temporal TemporalProvider,
	connectivity ConnectivityProvider,
	peripherals PeripheralProvider,
	deviceState DeviceStateProvider,
	config ProducerConfig,
	logger *zap.Logger,
) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{
		temporal:     temporal,
		connectivity: connectivity,
		peripherals:  peripherals,
		deviceState:  deviceState,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// #endregion producer

// #region sample

// Sample produces a fresh snapshot. Facets are sampled in parallel so one
// blocked provider cannot delay the others; a facet that does not resolve
// within FacetTimeout is recorded as absent for this pass. Sample never
// returns an error: provider failure degrades to facet absence.
func (p *Producer) Sample() Snapshot {
	type facetResult struct {
		temporal     *TemporalFacet
		connectivity *ConnectivityFacet
		peripherals  *PeripheralFacet
		deviceState  *DeviceStateFacet
	}

	temporalCh := make(chan *TemporalFacet, 1)
	connectivityCh := make(chan *ConnectivityFacet, 1)
	peripheralCh := make(chan *PeripheralFacet, 1)
	deviceStateCh := make(chan *DeviceStateFacet, 1)

	go func() {
		if p.temporal == nil {
			temporalCh <- nil
			return
		}
		f, err := p.temporal.Temporal()
		if err != nil {
			p.logger.Debug("temporal facet unavailable", zap.Error(err))
			temporalCh <- nil
			return
		}
		temporalCh <- &f
	}()
	go func() {
		if p.connectivity == nil {
			connectivityCh <- nil
			return
		}
		f, err := p.connectivity.Connectivity()
		if err != nil {
			p.logger.Debug("connectivity facet unavailable", zap.Error(err))
			connectivityCh <- nil
			return
		}
		connectivityCh <- &f
	}()
	go func() {
		if p.peripherals == nil {
			peripheralCh <- nil
			return
		}
		f, err := p.peripherals.Peripherals()
		if err != nil {
			p.logger.Debug("peripheral facet unavailable", zap.Error(err))
			peripheralCh <- nil
			return
		}
		peripheralCh <- &f
	}()
	go func() {
		if p.deviceState == nil {
			deviceStateCh <- nil
			return
		}
		f, err := p.deviceState.DeviceState()
		if err != nil {
			p.logger.Debug("device state facet unavailable", zap.Error(err))
			deviceStateCh <- nil
			return
		}
		deviceStateCh <- &f
	}()

	var result facetResult
	deadline := time.NewTimer(p.config.FacetTimeout)
	defer deadline.Stop()

	pending := 4
	for pending > 0 {
		select {
		case f := <-temporalCh:
			result.temporal = f
			temporalCh = nil
			pending--
		case f := <-connectivityCh:
			result.connectivity = f
			connectivityCh = nil
			pending--
		case f := <-peripheralCh:
			result.peripherals = f
			peripheralCh = nil
			pending--
		case f := <-deviceStateCh:
			result.deviceState = f
			deviceStateCh = nil
			pending--
		case <-deadline.C:
			// Whatever has not resolved yet is unavailable for this pass.
			// The goroutines drain into buffered channels, so none leak.
			p.logger.Debug("facet sampling timed out", zap.Int("pending", pending))
			pending = 0
		}
	}

	return Snapshot{
		Temporal:     result.temporal,
		Connectivity: result.connectivity,
		Peripherals:  result.peripherals,
		DeviceState:  result.deviceState,
		CapturedAt:   p.now().UTC(),
	}
}

// #endregion sample

// #region clock-provider

// ClockTemporal derives the temporal facet from a clock function. It is the
// default production TemporalProvider.
type ClockTemporal struct {
	Now func() time.Time // nil means time.Now
}

// Temporal implements TemporalProvider.
func (c ClockTemporal) Temporal() (TemporalFacet, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now()
	dow := int(t.Weekday())
	if dow == 0 {
		dow = 7 // ISO: Sunday is 7
	}
	return TemporalFacet{
		Hour:      t.Hour(),
		DayOfWeek: dow,
		Slot:      SlotForHour(t.Hour()),
	}, nil
}

// #endregion clock-provider
