package analysis

import (
	"strings"
)

// Point is one sample of a 2D plot.
type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	Particle int
	Points   []Point
}

// PhasePortrait records height against vertical velocity of one particle.
func PhasePortrait(tr *Trajectory, particle int) (*PhasePortrait2D, error) {
	if err := tr.checkParticle(particle); err != nil {
		return nil, err
	}
	pos, vel := tr.Position(particle), tr.Velocity(particle)
	portrait := &PhasePortrait2D{
		Particle: particle,
		Points:   make([]Point, tr.Len()),
	}
	for r := range portrait.Points {
		portrait.Points[r] = Point{X: pos.At(r, 1), Y: vel.At(r, 1)}
	}
	return portrait, nil
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}

	// Find bounds
	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y

	for _, p := range portrait.Points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	// Create canvas
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Plot points
	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	// Convert to string
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareSection records points when a trajectory crosses a plane
type PoincareSection struct {
	Points []Point
}

// GeneratePoincareSection records the horizontal position and velocity of a
// particle each time it rises through height threshold, interpolating
// linearly between frames.
func GeneratePoincareSection(tr *Trajectory, particle int, threshold float64) (*PoincareSection, error) {
	if err := tr.checkParticle(particle); err != nil {
		return nil, err
	}
	pos, vel := tr.Position(particle), tr.Velocity(particle)
	section := &PoincareSection{}

	for r := 1; r < tr.Len(); r++ {
		prev, curr := pos.At(r-1, 1), pos.At(r, 1)
		if prev < threshold && curr >= threshold {
			frac := (threshold - prev) / (curr - prev)
			section.Points = append(section.Points, Point{
				X: lerp(pos.At(r-1, 0), pos.At(r, 0), frac),
				Y: lerp(vel.At(r-1, 0), vel.At(r, 0), frac),
			})
		}
	}
	return section, nil
}

func lerp(a, b, frac float64) float64 { return a + (b-a)*frac }

// PoincareSectionToASCII converts section data to ASCII plot
func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}

	// Use same logic as phase portrait
	portrait := &PhasePortrait2D{Points: section.Points}
	return PhasePortraitToASCII(portrait, width, height)
}
