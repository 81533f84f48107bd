package model

// PriceLevels holds the derived stop/target/pyramid prices for one
// position. The trailing stop is not part of this set: it depends on
// the running max price and is derived per cycle by the calculator.
type PriceLevels struct {
	HardStop    float64
	WarningStop float64

	TP1 float64
	TP2 float64

	Py1Min float64
	Py1Max float64
	Py2Min float64
	Py2Max float64
}

// InPy1Zone reports whether price is inside the first pyramid zone.
func (l *PriceLevels) InPy1Zone(price float64) bool {
	return price >= l.Py1Min && price <= l.Py1Max
}

// InPy2Zone reports whether price is inside the second pyramid zone.
func (l *PriceLevels) InPy2Zone(price float64) bool {
	return price >= l.Py2Min && price <= l.Py2Max
}

// Extended reports whether price is beyond the second pyramid zone.
func (l *PriceLevels) Extended(price float64) bool {
	return price > l.Py2Max
}

// DistanceToStopPct returns the percentage cushion above the hard stop.
func (l *PriceLevels) DistanceToStopPct(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return (price - l.HardStop) / price * 100
}
