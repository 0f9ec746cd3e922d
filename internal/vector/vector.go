package vector

import (
	"github.com/cespare/xxhash/v2"

	"github.com/launchpilot/contextrank/internal/snapshot"
)

// #region dimensions

// Dim is the fixed length of a context vector.
const Dim = 15

// Dimension indices. The layout is part of the scoring contract: the weight
// table, the encoder, and the persisted vector blobs all share it.
const (
	DimHour        = 0
	DimDayOfWeek   = 1
	DimTimeSlot    = 2
	DimConnKind    = 3
	DimNetworkID   = 4
	DimHeadphones  = 5
	DimSpeakers    = 6
	DimCar         = 7
	DimKeyboard    = 8
	DimMouse       = 9
	DimWatch       = 10
	DimFitness     = 11
	DimDeviceCount = 12
	DimCharging    = 13
	DimOrientation = 14
)

// Vector is a fixed 15-dimensional projection of a snapshot. Every dimension
// is normalized to [0, 1].
type Vector [Dim]float32

// #endregion dimensions

// #region defaults

// Neutral defaults used when a facet is absent: mid-afternoon midweek, no
// connection, no peripherals, not charging, portrait. Absent facets encode to
// these fixed values so arithmetic downstream is always well-defined.
const (
	defaultHour      = 15
	defaultDayOfWeek = 4
)

// networkBuckets is the modulus for the lossy network-identifier hash.
const networkBuckets = 1000

// deviceCountCeiling saturates the normalized connected-device count.
const deviceCountCeiling = 5

// #endregion defaults

// #region encode

// Encode deterministically projects a snapshot into a Vector. It is a pure
// function: equal snapshots produce bit-identical vectors.
func Encode(s snapshot.Snapshot) Vector {
	var v Vector

	hour := defaultHour
	dow := defaultDayOfWeek
	if s.Temporal != nil {
		hour = s.Temporal.Hour
		dow = s.Temporal.DayOfWeek
	}
	slot := snapshot.SlotForHour(hour)
	if s.Temporal != nil && s.Temporal.Slot != "" {
		slot = s.Temporal.Slot
	}
	v[DimHour] = float32(hour) / 23.0
	v[DimDayOfWeek] = float32(dow-1) / 6.0
	v[DimTimeSlot] = float32(snapshot.SlotIndex(slot)) / 6.0

	kind := snapshot.ConnectionNone
	networkID := ""
	if s.Connectivity != nil {
		kind = s.Connectivity.Kind
		networkID = s.Connectivity.NetworkID
	}
	v[DimConnKind] = encodeKind(kind)
	v[DimNetworkID] = HashNetworkID(networkID)

	if s.Peripherals != nil {
		present := make(map[snapshot.PeripheralCategory]bool, len(s.Peripherals.Categories))
		for _, c := range s.Peripherals.Categories {
			present[c] = true
		}
		for i, c := range snapshot.FlagCategories {
			if present[c] {
				v[DimHeadphones+i] = 1.0
			}
		}
		count := len(s.Peripherals.DeviceIDs)
		if count > deviceCountCeiling {
			count = deviceCountCeiling
		}
		v[DimDeviceCount] = float32(count) / float32(deviceCountCeiling)
	}

	if s.DeviceState != nil {
		if s.DeviceState.Charging {
			v[DimCharging] = 1.0
		}
		if s.DeviceState.Orientation == snapshot.OrientationLandscape {
			v[DimOrientation] = 1.0
		}
	}

	return v
}

func encodeKind(kind snapshot.ConnectionKind) float32 {
	switch kind {
	case snapshot.ConnectionMobile:
		return 0.5
	case snapshot.ConnectionWifi:
		return 1.0
	default:
		return 0.0
	}
}

// #endregion encode

// #region network-hash

// HashNetworkID reduces a network identifier to a [0, 1] dimension via a
// 64-bit xxhash bucketed modulo 1000. Collisions are tolerated; what matters
// is that the mapping is reproducible bit-for-bit across runs and platforms.
// The empty identifier maps to 0.
func HashNetworkID(id string) float32 {
	if id == "" {
		return 0.0
	}
	bucket := xxhash.Sum64String(id) % networkBuckets
	return float32(bucket) / float32(networkBuckets-1)
}

// #endregion network-hash
