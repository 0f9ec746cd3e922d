package vector

import "math"

// #region params

// Params bundles the dimension weights and the similarity decay rate. The
// values are empirically chosen and behavioral parity depends on them; treat
// them as contract defaults, not tuning suggestions.
type Params struct {
	Weights   [Dim]float32
	DecayRate float64
}

// DefaultParams returns the contract weight table and decay rate. Temporal
// dimensions weigh highest, specific network identity highest of all,
// orientation lowest. Weights are relative, not normalized.
func DefaultParams() Params {
	var w [Dim]float32
	w[DimHour] = 2.0
	w[DimDayOfWeek] = 2.0
	w[DimTimeSlot] = 1.5
	w[DimConnKind] = 1.8
	w[DimNetworkID] = 2.2
	for i := DimHeadphones; i <= DimDeviceCount; i++ {
		w[i] = 1.3
	}
	w[DimCharging] = 1.2
	w[DimOrientation] = 0.6
	return Params{
		Weights:   w,
		DecayRate: 0.5,
	}
}

// #endregion params

// #region distance

// Distance computes the weighted Euclidean distance between two vectors:
// sqrt(sum_i w_i * (a_i - b_i)^2). It is symmetric and Distance(v, v) == 0.
func (p Params) Distance(a, b Vector) float64 {
	var sum float64
	for i := 0; i < Dim; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += float64(p.Weights[i]) * d * d
	}
	return math.Sqrt(sum)
}

// Similarity maps distance into (0, 1] via exp(-distance * DecayRate).
// Similarity(v, v) == 1 and similarity strictly decreases in distance.
func (p Params) Similarity(a, b Vector) float64 {
	return math.Exp(-p.Distance(a, b) * p.DecayRate)
}

// #endregion distance
