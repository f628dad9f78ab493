package export

import (
	"encoding/json"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/boxsim/internal/analysis"
	"github.com/san-kum/boxsim/internal/physics"
	"github.com/san-kum/boxsim/internal/storage"
)

// ExportData is a stored run in one self-describing document, with
// positions and velocities per frame as [x, y] pairs.
type ExportData struct {
	ID         string                       `json:"id"`
	Name       string                       `json:"name"`
	Integrator string                       `json:"integrator"`
	Particles  []physics.ParticleParameters `json:"particles"`
	Gravity    float64                      `json:"gravity"`
	Elasticity float64                      `json:"elasticity"`
	Frames     []FrameData                  `json:"frames"`
	Metrics    map[string]float64           `json:"metrics"`
	Error      string                       `json:"error,omitempty"`
}

type FrameData struct {
	Time       float64      `json:"t"`
	Positions  [][2]float64 `json:"positions"`
	Velocities [][2]float64 `json:"velocities"`
}

func ExportJSON(w io.Writer, meta *storage.RunMetadata, tr *analysis.Trajectory) error {
	data := ExportData{
		ID:         meta.ID,
		Name:       meta.Name,
		Integrator: meta.Integrator,
		Particles:  meta.Particles,
		Frames:     make([]FrameData, tr.Len()),
		Metrics:    meta.Metrics,
		Error:      meta.Error,
	}
	if meta.Config != nil {
		data.Gravity = meta.Config.Gravity
		data.Elasticity = meta.Config.Elasticity
	}

	times := tr.Times()
	pos, vel := tr.Positions(), tr.Velocities()
	for r := range data.Frames {
		data.Frames[r] = FrameData{
			Time:       times[r],
			Positions:  pairs(pos, r, tr.NumParticles()),
			Velocities: pairs(vel, r, tr.NumParticles()),
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func pairs(m mat.Matrix, r, n int) [][2]float64 {
	out := make([][2]float64, n)
	for i := range out {
		out[i] = [2]float64{m.At(r, 2*i), m.At(r, 2*i+1)}
	}
	return out
}
