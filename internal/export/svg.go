package export

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/boxsim/internal/analysis"
	"github.com/san-kum/boxsim/internal/dynamo"
)

var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

// svgBox maps box coordinates onto an SVG viewport. The viewport is at
// least the unit box and grows upward to fit particles above it.
type svgBox struct {
	size, pad float64
	top       float64
}

func newSVGBox(size int, maxY float64) svgBox {
	top := math.Max(1, maxY)
	return svgBox{size: float64(size), pad: 10, top: top}
}

func (b svgBox) width() float64  { return b.size + 2*b.pad }
func (b svgBox) height() float64 { return b.size*b.top + 2*b.pad }

func (b svgBox) point(p r2.Vec) (float64, float64) {
	return b.pad + p.X*b.size, b.pad + (b.top-p.Y)*b.size
}

func (b svgBox) open(sb *strings.Builder) {
	w, h := b.width(), b.height()
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, w, h, w, h)

	// left wall, floor, right wall; the top is open
	x0, y0 := b.point(r2.Vec{X: 0, Y: b.top})
	x1, y1 := b.point(r2.Vec{X: 0, Y: 0})
	x2, y2 := b.point(r2.Vec{X: 1, Y: 0})
	x3, y3 := b.point(r2.Vec{X: 1, Y: b.top})
	fmt.Fprintf(sb, `<polyline fill="none" stroke="#888888" stroke-width="2" points="%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f"/>
`, x0, y0, x1, y1, x2, y2, x3, y3)
}

func (b svgBox) circle(sb *strings.Builder, p r2.Vec, r float64, color string) {
	cx, cy := b.point(p)
	fmt.Fprintf(sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="0.6" stroke="%s"/>
`, cx, cy, r*b.size, color, color)
}

// FrameToSVG draws one frame: the walls and every particle as a circle
// of its true radius.
func FrameToSVG(positions []r2.Vec, radii []float64, size int) (string, error) {
	if len(positions) == 0 || len(positions) != len(radii) {
		return "", fmt.Errorf("%w: %d positions, %d radii", dynamo.ErrShape, len(positions), len(radii))
	}
	maxY := 0.0
	for i, p := range positions {
		maxY = math.Max(maxY, p.Y+radii[i])
	}
	b := newSVGBox(size, maxY)

	var sb strings.Builder
	b.open(&sb)
	for i, p := range positions {
		b.circle(&sb, p, radii[i], palette[i%len(palette)])
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}

// PathsToSVG draws the path of every particle in tr and its final
// position.
func PathsToSVG(tr *analysis.Trajectory, radii []float64, size int) (string, error) {
	n := tr.NumParticles()
	if len(radii) != n {
		return "", fmt.Errorf("%w: %d radii for %d particles", dynamo.ErrShape, len(radii), n)
	}
	pos := tr.Positions()
	rows, _ := pos.Dims()
	maxY := 0.0
	for r := 0; r < rows; r++ {
		for i := 0; i < n; i++ {
			maxY = math.Max(maxY, pos.At(r, 2*i+1)+radii[i])
		}
	}
	b := newSVGBox(size, maxY)

	var sb strings.Builder
	b.open(&sb)
	for i := 0; i < n; i++ {
		color := palette[i%len(palette)]
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, color)
		for r := 0; r < rows; r++ {
			x, y := b.point(r2.Vec{X: pos.At(r, 2*i), Y: pos.At(r, 2*i+1)})
			if r == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
		b.circle(&sb, r2.Vec{X: pos.At(rows-1, 2*i), Y: pos.At(rows-1, 2*i+1)}, radii[i], color)
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}
