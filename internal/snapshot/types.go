package snapshot

import "time"

// #region connection-kind

// ConnectionKind classifies the active network connection.
type ConnectionKind string

const (
	ConnectionNone   ConnectionKind = "none"
	ConnectionMobile ConnectionKind = "mobile"
	ConnectionWifi   ConnectionKind = "wifi"
)

// #endregion connection-kind

// #region time-slot

// TimeSlot is a 7-way bucket over the hours of the day.
type TimeSlot string

const (
	SlotLateNight    TimeSlot = "late_night"    // [0, 5)
	SlotEarlyMorning TimeSlot = "early_morning" // [5, 8)
	SlotMorning      TimeSlot = "morning"       // [8, 11)
	SlotMidday       TimeSlot = "midday"        // [11, 14)
	SlotAfternoon    TimeSlot = "afternoon"     // [14, 17)
	SlotEvening      TimeSlot = "evening"       // [17, 21)
	SlotNight        TimeSlot = "night"         // [21, 24)
)

// SlotForHour maps an hour of day (0-23) to its TimeSlot.
func SlotForHour(hour int) TimeSlot {
	switch {
	case hour < 5:
		return SlotLateNight
	case hour < 8:
		return SlotEarlyMorning
	case hour < 11:
		return SlotMorning
	case hour < 14:
		return SlotMidday
	case hour < 17:
		return SlotAfternoon
	case hour < 21:
		return SlotEvening
	default:
		return SlotNight
	}
}

// SlotIndex returns the ordinal position of a slot, 0-6.
func SlotIndex(slot TimeSlot) int {
	switch slot {
	case SlotLateNight:
		return 0
	case SlotEarlyMorning:
		return 1
	case SlotMorning:
		return 2
	case SlotMidday:
		return 3
	case SlotAfternoon:
		return 4
	case SlotEvening:
		return 5
	default:
		return 6
	}
}

// #endregion time-slot

// #region peripheral-category

// PeripheralCategory classifies a connected peripheral.
type PeripheralCategory string

const (
	PeripheralHeadphones     PeripheralCategory = "headphones"
	PeripheralSpeakers       PeripheralCategory = "speakers"
	PeripheralCar            PeripheralCategory = "car"
	PeripheralKeyboard       PeripheralCategory = "keyboard"
	PeripheralMouse          PeripheralCategory = "mouse"
	PeripheralWatch          PeripheralCategory = "watch"
	PeripheralFitnessTracker PeripheralCategory = "fitness_tracker"
	PeripheralOther          PeripheralCategory = "other"
)

// FlagCategories lists the categories that carry an indicator dimension in the
// context vector. PeripheralOther contributes to the device count only.
var FlagCategories = [7]PeripheralCategory{
	PeripheralHeadphones,
	PeripheralSpeakers,
	PeripheralCar,
	PeripheralKeyboard,
	PeripheralMouse,
	PeripheralWatch,
	PeripheralFitnessTracker,
}

// #endregion peripheral-category

// #region orientation

// Orientation is the device screen orientation.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// #endregion orientation

// #region facets

// TemporalFacet captures when the snapshot was taken.
type TemporalFacet struct {
	Hour      int      `json:"hour"`      // 0-23
	DayOfWeek int      `json:"dayOfWeek"` // 1-7, Monday=1
	Slot      TimeSlot `json:"slot"`
}

// ConnectivityFacet captures the active network connection.
// NetworkID is empty when the identifier is unavailable (e.g. missing permission).
type ConnectivityFacet struct {
	Kind      ConnectionKind `json:"kind"`
	NetworkID string         `json:"networkId,omitempty"`
}

// PeripheralFacet captures connected peripherals.
type PeripheralFacet struct {
	DeviceIDs  []string             `json:"deviceIds,omitempty"`
	Categories []PeripheralCategory `json:"categories,omitempty"`
}

// DeviceStateFacet captures power and orientation state.
type DeviceStateFacet struct {
	Charging    bool        `json:"charging"`
	Orientation Orientation `json:"orientation"`
}

// #endregion facets

// #region snapshot

// Snapshot is a point-in-time record of the device context. Each facet is nil
// when its underlying source was unavailable during sampling. Snapshots are
// immutable once produced.
type Snapshot struct {
	Temporal     *TemporalFacet     `json:"temporal,omitempty"`
	Connectivity *ConnectivityFacet `json:"connectivity,omitempty"`
	Peripherals  *PeripheralFacet   `json:"peripherals,omitempty"`
	DeviceState  *DeviceStateFacet  `json:"deviceState,omitempty"`
	CapturedAt   time.Time          `json:"capturedAt"`
}

// #endregion snapshot

// #region providers

// TemporalProvider produces the current temporal facet.
// Any error means the facet is unavailable for this sampling pass.
type TemporalProvider interface {
	Temporal() (TemporalFacet, error)
}

// ConnectivityProvider produces the current connectivity facet.
type ConnectivityProvider interface {
	Connectivity() (ConnectivityFacet, error)
}

// PeripheralProvider produces the current paired-peripheral facet.
type PeripheralProvider interface {
	Peripherals() (PeripheralFacet, error)
}

// DeviceStateProvider produces the current power/orientation facet.
type DeviceStateProvider interface {
	DeviceState() (DeviceStateFacet, error)
}

// #endregion providers
