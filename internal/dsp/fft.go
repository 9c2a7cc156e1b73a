// Package dsp holds the small set of numeric primitives shared by the
// analysis and effects packages: FFT framing, windows, one-pole smoothing
// and fractional-delay interpolation.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// NextPow2 returns the smallest power of two >= n.
func NextPow2(n int) int {
	v := 1
	for v < n {
		v <<= 1
	}
	return v
}

// HannWindow returns an n-sample periodic-free Hann window.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// FFT holds a reusable gonum CmplxFFT plan for a fixed transform size.
// The teacher's dsp.go hand-rolls an iterative Cooley-Tukey transform;
// here the transform itself is delegated to gonum's dsp/fourier, since a
// real FFT library is a better fit for a production rewrite, while the
// framing/windowing/flux code around it keeps the teacher's shape.
type FFT struct {
	size int
	plan *fourier.CmplxFFT
	in   []complex128
}

// NewFFT creates an FFT plan for the given size, which must already be a
// power of two (callers round up with NextPow2).
func NewFFT(size int) *FFT {
	return &FFT{size: size, plan: fourier.NewCmplxFFT(size), in: make([]complex128, size)}
}

// Size returns the transform size this plan was built for.
func (f *FFT) Size() int { return f.size }

// Forward computes the forward FFT of frame (which must have length Size())
// and returns a slice owned by the caller-supplied dst, resized as needed.
func (f *FFT) Forward(frame []complex128, dst []complex128) []complex128 {
	if cap(dst) < f.size {
		dst = make([]complex128, f.size)
	}
	dst = dst[:f.size]
	return f.plan.Coefficients(dst, frame)
}

// Inverse computes the inverse FFT of spectrum into dst.
func (f *FFT) Inverse(spectrum []complex128, dst []complex128) []complex128 {
	if cap(dst) < f.size {
		dst = make([]complex128, f.size)
	}
	dst = dst[:f.size]
	out := f.plan.Sequence(dst, spectrum)
	scale := 1 / float64(f.size)
	for i := range out {
		out[i] *= complex(scale, 0)
	}
	return out
}

// Magnitudes fills mag[0:size/2+1] with |X[k]| for the positive-frequency
// half of spectrum.
func Magnitudes(spectrum []complex128, mag []float64) []float64 {
	half := len(spectrum)/2 + 1
	if cap(mag) < half {
		mag = make([]float64, half)
	}
	mag = mag[:half]
	for k := 0; k < half; k++ {
		mag[k] = cmplxAbs(spectrum[k])
	}
	return mag
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
