package signal

import "fmt"

// FindPeaks returns the indices of local maxima in y whose value is at least
// minHeight. Flat-topped peaks report the middle sample of the plateau.
func FindPeaks(y []float64, minHeight float64) []int {
	var peaks []int
	i := 1
	for i < len(y)-1 {
		if y[i-1] >= y[i] {
			i++
			continue
		}
		// Rising edge found. Walk across any plateau.
		j := i
		for j < len(y)-1 && y[j+1] == y[j] {
			j++
		}
		if j < len(y)-1 && y[j+1] < y[j] {
			mid := (i + j) / 2
			if y[mid] >= minHeight {
				peaks = append(peaks, mid)
			}
		}
		i = j + 1
	}
	return peaks
}

// Width describes the horizontal extent of a single peak measured at a
// height derived from its prominence. Left and Right are interpolated
// sample positions, so they carry fractional parts.
type Width struct {
	Width  float64
	Height float64
	Left   float64
	Right  float64
}

// Prominence measures how much a peak stands out from the surrounding
// baseline: the drop from the peak to the higher of the two lowest valleys
// separating it from taller terrain (or the signal edge).
func Prominence(y []float64, peak int) float64 {
	leftMin := y[peak]
	for i := peak - 1; i >= 0; i-- {
		if y[i] > y[peak] {
			break
		}
		if y[i] < leftMin {
			leftMin = y[i]
		}
	}
	rightMin := y[peak]
	for i := peak + 1; i < len(y); i++ {
		if y[i] > y[peak] {
			break
		}
		if y[i] < rightMin {
			rightMin = y[i]
		}
	}
	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return y[peak] - base
}

// PeakWidths measures the width of each peak at the evaluation height
// peak - relHeight*prominence, interpolating the crossing positions between
// samples. relHeight must lie in [0, 1].
func PeakWidths(y []float64, peaks []int, relHeight float64) ([]Width, error) {
	if relHeight < 0 || relHeight > 1 {
		return nil, fmt.Errorf("relative height %g out of range [0, 1]", relHeight)
	}
	widths := make([]Width, len(peaks))
	for n, p := range peaks {
		if p < 0 || p >= len(y) {
			return nil, fmt.Errorf("peak index %d out of range", p)
		}
		h := y[p] - relHeight*Prominence(y, p)

		left := float64(0)
		for i := p; i > 0; i-- {
			if y[i-1] < h {
				left = float64(i-1) + (h-y[i-1])/(y[i]-y[i-1])
				break
			}
		}
		right := float64(len(y) - 1)
		for i := p; i < len(y)-1; i++ {
			if y[i+1] < h {
				right = float64(i+1) - (h-y[i+1])/(y[i]-y[i+1])
				break
			}
		}

		widths[n] = Width{
			Width:  right - left,
			Height: h,
			Left:   left,
			Right:  right,
		}
	}
	return widths, nil
}
