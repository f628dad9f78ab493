// Package viz renders the particle box in the terminal.
//
// Particles are drawn as circles on a braille [Canvas] (2x4 dots per cell)
// inside the left, right and floor walls; the top is open. [Model] is a
// Bubble Tea program that asks a frame source for positions once per tick,
// the same call a graphical renderer would make. [Picker] chooses a preset
// before starting it.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Restart from the initial state
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	[]    - Replay recent frames
package viz
