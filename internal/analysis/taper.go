// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// TaperFunc selects the weighting applied across each bin's correlation
// window.
type TaperFunc int

// Available taper functions. Bump is the analytic bump used by default; the
// rest are the classical windows from gonum's dsp/window package.
const (
	Bump TaperFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// DefaultTaperShape is the bump sharpness A.
const DefaultTaperShape = 10.0

var taperNames = map[TaperFunc]string{
	Bump:            "bump",
	BartlettHann:    "bartletthann",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	Hann:            "hann",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
}

func (t TaperFunc) String() string {
	if name, ok := taperNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TaperFunc(%d)", int(t))
}

// ParseTaperFunc converts a name (case-insensitive) to a TaperFunc. Unknown
// names return Bump and an error.
func ParseTaperFunc(name string) (TaperFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bump":
		return Bump, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Bump, fmt.Errorf("unknown taper function name: '%s'", name)
	}
}

// bump is exactly 1 at x=0, 0 at |x|>=1 and smooth in between. Larger a
// narrows the peak.
func bump(x, a float64) float64 {
	if x < -1 || x > 1 {
		return 0
	}
	return math.Exp(a*math.Sqrt(math.Max(0, 1-x*x))) * math.Exp(-a)
}

// fillTaper writes the weights for a window covering buffer offsets
// [start, start+len(weights)) of a bufferSize history with the given
// windowSize.
func fillTaper(weights []float64, t TaperFunc, shape float64, start int, bufferSize, windowSize float64) {
	if t == Bump {
		for i := range weights {
			x := (float64(start+i)*2 - bufferSize) / windowSize
			weights[i] = bump(x, shape)
		}
		return
	}

	// gonum windows scale the sequence in place over its own length.
	for i := range weights {
		weights[i] = 1
	}
	// They divide by len-1, so a single-sample window stays rectangular.
	if len(weights) < 2 {
		return
	}
	switch t {
	case BartlettHann:
		window.BartlettHann(weights)
	case Blackman:
		window.Blackman(weights)
	case BlackmanNuttall:
		window.BlackmanNuttall(weights)
	case Hann:
		window.Hann(weights)
	case Hamming:
		window.Hamming(weights)
	case Lanczos:
		window.Lanczos(weights)
	case Nuttall:
		window.Nuttall(weights)
	default:
		logger.Warnf("unknown taper function %d, using a rectangular window", int(t))
	}
}
