package analysis

import (
	"strings"
)

// ApexPoint holds the rebound heights recorded for one parameter value.
type ApexPoint struct {
	Param  float64
	Values []float64
}

// BounceApexes returns the local maxima of a height series, the tops of the
// arcs between floor contacts. Plateaus count once.
func BounceApexes(heights []float64) []float64 {
	var apexes []float64
	for i := 1; i < len(heights)-1; i++ {
		if heights[i] > heights[i-1] && heights[i] >= heights[i+1] {
			apexes = append(apexes, heights[i])
		}
	}
	return apexes
}

// ApexDiagramToASCII plots rebound heights (vertical) against the swept
// parameter (horizontal).
func ApexDiagramToASCII(data []ApexPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	// Find value range - need at least one valid value
	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.Values {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
				continue
			}
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
	}
	if !foundFirst {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
