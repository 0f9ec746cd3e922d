package usage

// #region next-weight

// NextWeight applies one saturating EMA step toward 1.0:
// new = old + factor*(1 - old). Repeated touches strictly increase the
// weight but never reach 1.0 for factor < 1. The update is independent of
// context; history append is a side effect of the same touch event.
func NextWeight(old, factor float64) float64 {
	return old + factor*(1-old)
}

// #endregion next-weight

// #region clamp01

// Clamp01 restricts w to [0, 1]. Used by the score combiner on the blend
// input only; the stored weight is never clamped.
func Clamp01(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// #endregion clamp01
