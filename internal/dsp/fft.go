// Package dsp provides the 2D frequency transforms backing the texture
// descriptor and the noise power-spectrum estimate.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT2D computes the 2D discrete Fourier transform of a real-valued
// row-major field of the given size.
//
// Rows are transformed with gonum's real-input FFT; the half spectrum is
// expanded to the full row using conjugate symmetry, and columns are then
// transformed with the complex FFT. Output is row-major, length w*h.
func FFT2D(data []float64, w, h int) []complex128 {
	result := make([]complex128, w*h)

	rowFFT := fourier.NewFFT(w)
	half := make([]complex128, w/2+1)
	rowIn := make([]float64, w)
	for y := 0; y < h; y++ {
		copy(rowIn, data[y*w:(y+1)*w])
		rowFFT.Coefficients(half, rowIn)
		row := result[y*w : (y+1)*w]
		copy(row, half)
		for x := len(half); x < w; x++ {
			// Conjugate symmetry: F(w-k) = conj(F(k)) for real input.
			c := half[w-x]
			row[x] = complex(real(c), -imag(c))
		}
	}

	colFFT := fourier.NewCmplxFFT(h)
	colIn := make([]complex128, h)
	colOut := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colIn[y] = result[y*w+x]
		}
		colFFT.Coefficients(colOut, colIn)
		for y := 0; y < h; y++ {
			result[y*w+x] = colOut[y]
		}
	}
	return result
}

// IFFT2D inverts FFT2D and returns the real part of the reconstruction,
// normalized by the field size.
func IFFT2D(freq []complex128, w, h int) []float64 {
	tmp := make([]complex128, w*h)
	copy(tmp, freq)

	colFFT := fourier.NewCmplxFFT(h)
	colIn := make([]complex128, h)
	colOut := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colIn[y] = tmp[y*w+x]
		}
		colFFT.Sequence(colOut, colIn)
		for y := 0; y < h; y++ {
			tmp[y*w+x] = colOut[y]
		}
	}

	rowFFT := fourier.NewCmplxFFT(w)
	rowOut := make([]complex128, w)
	out := make([]float64, w*h)
	norm := 1.0 / float64(w*h)
	for y := 0; y < h; y++ {
		rowFFT.Sequence(rowOut, tmp[y*w:(y+1)*w])
		for x := 0; x < w; x++ {
			out[y*w+x] = real(rowOut[x]) * norm
		}
	}
	return out
}

// PowerSpectrum computes the normalized power |F|²/N of a spectrum.
func PowerSpectrum(freq []complex128) []float64 {
	out := make([]float64, len(freq))
	norm := 1.0 / float64(len(freq))
	for i, c := range freq {
		re, im := real(c), imag(c)
		out[i] = (re*re + im*im) * norm
	}
	return out
}

// Magnitudes computes |F| per bin.
func Magnitudes(freq []complex128) []float64 {
	out := make([]float64, len(freq))
	for i, c := range freq {
		re, im := real(c), imag(c)
		out[i] = math.Sqrt(re*re + im*im)
	}
	return out
}
