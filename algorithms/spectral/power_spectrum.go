package spectral

// PowerSpectrum converts complex spectra to squared magnitudes.
type PowerSpectrum struct{}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Compute returns |z|^2 for each value.
func (ps *PowerSpectrum) Compute(spectrum []complex128) []float64 {
	power := make([]float64, len(spectrum))
	for i, z := range spectrum {
		re, im := real(z), imag(z)
		power[i] = re*re + im*im
	}
	return power
}

// ComputeFromSTFT returns the bins x frames power spectrogram.
func (ps *PowerSpectrum) ComputeFromSTFT(stftResult *STFTResult) [][]float64 {
	power := make([][]float64, stftResult.FreqBins)
	for k := range power {
		power[k] = ps.Compute(stftResult.Complex[k])
	}
	return power
}
