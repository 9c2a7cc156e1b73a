package dsp

// LagrangeInterp4 performs 4-point (3rd order) Lagrange interpolation for a
// fractional index frac in [0,1) between samples y1 and y2, using y0 and y3
// as the outer neighbors. Used by the delay line's fractional tap.
func LagrangeInterp4(y0, y1, y2, y3, frac float64) float64 {
	c0 := y1
	c1 := y2 - y0/3 - y1/2 - y3/6
	c2 := (y0+y2)/2 - y1
	c3 := (y3-y0)/6 + (y1-y2)/2
	return ((c3*frac+c2)*frac+c1)*frac + c0
}

// CubicInterp4 is the plain 4-point cubic (passing through y1 at frac=0
// and y2 at frac=1, with slope y2-y0 at y1) used by the tape-stop reader
// for its variable-rate reconstruction.
func CubicInterp4(y0, y1, y2, y3, frac float64) float64 {
	a0 := y3 - y2 - y0 + y1
	a1 := y0 - y1 - a0
	a2 := y2 - y0
	a3 := y1
	return ((a0*frac+a1)*frac+a2)*frac + a3
}

// LinearInterp interpolates linearly between y0 and y1 at fractional frac.
func LinearInterp(y0, y1, frac float64) float64 {
	return y0 + (y1-y0)*frac
}
