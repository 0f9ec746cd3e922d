package snapshot

import "sort"

// #region facet-field

// FacetField names one comparable component of a snapshot for change
// detection and match explanation.
type FacetField string

const (
	FieldHour           FacetField = "hour"
	FieldDayOfWeek      FacetField = "day_of_week"
	FieldTimeSlot       FacetField = "time_slot"
	FieldConnectionKind FacetField = "connection_kind"
	FieldNetworkID      FacetField = "network_id"
	FieldDeviceSet      FacetField = "device_set"
	FieldCategorySet    FacetField = "category_set"
	FieldCharging       FacetField = "charging"
	FieldOrientation    FacetField = "orientation"
)

// #endregion facet-field

// #region changed-facets

// ChangedFacets compares two snapshots facet by facet and returns the fields
// that differ. The capture timestamp is deliberately ignored: two snapshots
// that agree on every facet are unchanged no matter how far apart they were
// taken.
func ChangedFacets(old, cur Snapshot) []FacetField {
	var changed []FacetField

	ot, ct := old.Temporal, cur.Temporal
	switch {
	case ot == nil && ct == nil:
	case ot == nil || ct == nil:
		changed = append(changed, FieldHour, FieldDayOfWeek, FieldTimeSlot)
	default:
		if ot.Hour != ct.Hour {
			changed = append(changed, FieldHour)
		}
		if ot.DayOfWeek != ct.DayOfWeek {
			changed = append(changed, FieldDayOfWeek)
		}
		if ot.Slot != ct.Slot {
			changed = append(changed, FieldTimeSlot)
		}
	}

	oc, cc := old.Connectivity, cur.Connectivity
	switch {
	case oc == nil && cc == nil:
	case oc == nil || cc == nil:
		changed = append(changed, FieldConnectionKind, FieldNetworkID)
	default:
		if oc.Kind != cc.Kind {
			changed = append(changed, FieldConnectionKind)
		}
		if oc.NetworkID != cc.NetworkID {
			changed = append(changed, FieldNetworkID)
		}
	}

	op, cp := old.Peripherals, cur.Peripherals
	switch {
	case op == nil && cp == nil:
	case op == nil || cp == nil:
		changed = append(changed, FieldDeviceSet, FieldCategorySet)
	default:
		if !sameStringSet(op.DeviceIDs, cp.DeviceIDs) {
			changed = append(changed, FieldDeviceSet)
		}
		if !sameCategorySet(op.Categories, cp.Categories) {
			changed = append(changed, FieldCategorySet)
		}
	}

	od, cd := old.DeviceState, cur.DeviceState
	switch {
	case od == nil && cd == nil:
	case od == nil || cd == nil:
		changed = append(changed, FieldCharging, FieldOrientation)
	default:
		if od.Charging != cd.Charging {
			changed = append(changed, FieldCharging)
		}
		if od.Orientation != cd.Orientation {
			changed = append(changed, FieldOrientation)
		}
	}

	return changed
}

// SharedFacets returns the fields on which both snapshots agree. Used to
// explain why a historical context matched the current one.
func SharedFacets(a, b Snapshot) []FacetField {
	all := []FacetField{
		FieldHour, FieldDayOfWeek, FieldTimeSlot,
		FieldConnectionKind, FieldNetworkID,
		FieldDeviceSet, FieldCategorySet,
		FieldCharging, FieldOrientation,
	}
	diff := make(map[FacetField]bool)
	for _, f := range ChangedFacets(a, b) {
		diff[f] = true
	}
	var shared []FacetField
	for _, f := range all {
		if !diff[f] {
			shared = append(shared, f)
		}
	}
	return shared
}

// #endregion changed-facets

// #region set-helpers

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func sameCategorySet(a, b []PeripheralCategory) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[PeripheralCategory]int, len(a))
	for _, c := range a {
		seen[c]++
	}
	for _, c := range b {
		seen[c]--
		if seen[c] < 0 {
			return false
		}
	}
	return true
}

// #endregion set-helpers
