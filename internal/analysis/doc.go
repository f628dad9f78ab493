// Package analysis turns recorded runs into data for offline inspection.
//
// The central type is [Trajectory], built from a batch of packed states:
//
//	tr, err := analysis.NewTrajectory(res.Times, states)
//	pos, err := tr.PositionOf(0) // T×2 read-only view
//
// On top of it the package provides:
//
//   - [DominantFrequency]: strongest oscillation in a sampled series (FFT)
//   - [PhasePortrait]: height against vertical velocity of one particle
//   - [PoincareSection]: states recorded where a particle crosses a height
//   - [BounceApexes] and [ApexDiagramToASCII]: rebound heights per parameter
//   - [LyapunovExponent]: divergence rate of two nearby runs
package analysis
