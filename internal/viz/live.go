package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/sim"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	gifPath         = "boxsim.gif"
)

// Snapshot stores one rendered frame for replay.
type Snapshot struct {
	Positions []r2.Vec
	Time      float64
	Energy    float64
}

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// BuildFunc creates a fresh simulator at its initial state.
type BuildFunc func() (*sim.Simulator, error)

// Model animates a particle box. Each tick asks the simulator for the
// positions at frame/fps and draws them.
type Model struct {
	name          string
	build         BuildFunc
	sim           *sim.Simulator
	radii         []float64
	fps           float64
	maxFrames     int
	frame         int
	t             float64
	positions     []r2.Vec
	err           error
	width, height int
	canvas        *Canvas
	running       bool
	energyHistory []float64
	history       []Snapshot
	playHead      int
	recording     bool
	frames        []*image.Paletted
	gifErr        error
	showHelp      bool
}

// NewModel builds the first simulator and draws its initial state.
// maxFrames of zero animates until the user quits.
func NewModel(name string, build BuildFunc, radii []float64, fps float64, maxFrames int) (Model, error) {
	if fps <= 0 {
		return Model{}, fmt.Errorf("%w: fps must be positive", dynamo.ErrInvalidParams)
	}
	m := Model{
		name:          name,
		build:         build,
		radii:         radii,
		fps:           fps,
		maxFrames:     maxFrames,
		width:         width,
		height:        height,
		canvas:        NewCanvas(width, height),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		history:       make([]Snapshot, 0, historyCapacity),
		playHead:      -1,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Duration(float64(time.Second)/m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recording {
				m.gifErr = m.saveGIF(gifPath)
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
				m.running = false
			}
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "g":
			if m.recording {
				m.gifErr = m.saveGIF(gifPath)
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			names := ThemeNames()
			for i, name := range names {
				if name == CurrentTheme.Name {
					SetTheme(names[(i+1)%len(names)])
					break
				}
			}
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, m.tick()
	}
	return m, nil
}

// step requests the next frame. A failed simulator stops the animation
// and leaves the last good frame on screen.
func (m *Model) step() {
	if m.err != nil || (m.maxFrames > 0 && m.frame >= m.maxFrames) {
		m.running = false
		return
	}
	t, pos, err := m.sim.Frame(float64(m.frame+1) / m.fps)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.frame++
	m.t, m.positions = t, pos
	m.record()
}

func (m *Model) record() {
	energy := 0.0
	if h, ok := m.sim.System().(dynamo.Hamiltonian); ok {
		energy = h.Energy(m.sim.State())
	}
	m.energyHistory = append(m.energyHistory, energy)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
	m.history = append(m.history, Snapshot{Positions: m.positions, Time: m.t, Energy: energy})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) > 0 {
			m.playHead = len(m.history) - 1
			m.running = false
		} else {
			return
		}
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset rebuilds the simulator and restarts from frame zero.
func (m *Model) reset() error {
	s, err := m.build()
	if err != nil {
		return err
	}
	pos, _, err := dynamo.Unpack(s.State())
	if err != nil {
		return err
	}
	if len(pos) != len(m.radii) {
		return fmt.Errorf("%w: %d radii for %d particles", dynamo.ErrShape, len(m.radii), len(pos))
	}
	m.sim, m.err = s, nil
	m.frame, m.t, m.positions = 0, s.Time(), pos
	m.energyHistory = m.energyHistory[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.record()
	m.draw()
	return nil
}

// Frame is the current frame index.
func (m Model) Frame() int { return m.frame }

// Time is the simulation time of the displayed frame.
func (m Model) Time() float64 { return m.t }

// Err is the simulator failure, if any.
func (m Model) Err() error { return m.err }

// View renders the TUI interface.
func (m Model) View() string {
	t, energyHist, status := m.t, m.energyHistory, "RUNNING"
	if m.playHead >= 0 && m.playHead < len(m.history) {
		snap := m.history[m.playHead]
		t = snap.Time
		m.positions = snap.Positions
		m.draw()
		last := m.history[len(m.history)-1].Time
		if m.running {
			status = fmt.Sprintf("REPLAYING (%.2fs)", t-last)
		} else {
			status = fmt.Sprintf("REPLAY PAUSED (%.2fs)", t-last)
		}
	} else if m.err != nil {
		status = "FAILED"
	} else if m.maxFrames > 0 && m.frame >= m.maxFrames {
		status = "DONE"
	} else if !m.running {
		status = "PAUSED"
	}
	if m.recording {
		status += " ● REC"
	}

	theme := CurrentTheme
	canvasView := canvasStyle.Foreground(theme.Primary).Render(m.canvas.String())
	var s strings.Builder
	s.WriteString(headerStyle.Foreground(theme.Secondary).Render(strings.ToUpper(m.name)) + "\n")
	if m.err != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render(status) + "\n")
		s.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Width(38).Render(m.err.Error()) + "\n\n")
	} else {
		s.WriteString(fmt.Sprintf("%s\n\n", status))
	}
	if len(energyHist) > 1 {
		chart := asciigraph.Plot(energyHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3fs", t)) + "\n")
	frames := fmt.Sprintf("%d", m.frame)
	if m.maxFrames > 0 {
		frames = fmt.Sprintf("%d/%d", m.frame, m.maxFrames)
	}
	s.WriteString(labelStyle.Render("Frame") + valueStyle.Render(frames) + "\n")
	s.WriteString(labelStyle.Render("Particles") + valueStyle.Render(fmt.Sprintf("%d", len(m.radii))) + "\n")
	energy := 0.0
	if len(energyHist) > 0 {
		energy = energyHist[len(energyHist)-1]
	}
	s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.5f", energy)) + "\n")
	s.WriteString(labelStyle.Render("Theme") + valueStyle.Render(theme.Name) + "\n")
	if m.gifErr != nil {
		s.WriteString(labelStyle.Render("GIF") + valueStyle.Render(m.gifErr.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nT:Theme  G:Record ?:Help\n[ ]:Replay"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Restart simulation       ║
║  Q        - Quit                     ║
║  [        - Step back in replay      ║
║  ]        - Step forward in replay   ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// layout maps the unit box onto canvas sub-pixels. The box is square and
// sits on the bottom of the canvas; the space above it stays visible
// because there is no ceiling.
func (m *Model) layout() (x0, floor int, scale float64) {
	pw, ph := m.width*2, m.height*4
	side := pw - 4
	if ph-4 < side {
		side = ph - 4
	}
	return (pw - side) / 2, ph - 2, float64(side)
}

func (m *Model) project(p r2.Vec) (int, int) {
	x0, floor, scale := m.layout()
	return x0 + int(p.X*scale+0.5), floor - int(p.Y*scale+0.5)
}

func (m *Model) draw() {
	m.canvas.Clear()
	x0, floor, scale := m.layout()
	right := x0 + int(scale+0.5)
	m.canvas.DrawLine(x0, 0, x0, floor)
	m.canvas.DrawLine(right, 0, right, floor)
	m.canvas.DrawLine(x0, floor, right, floor)
	for i, p := range m.positions {
		cx, cy := m.project(p)
		r := int(m.radii[i]*scale + 0.5)
		if r < 2 {
			m.canvas.FillCircle(cx, cy, r)
		} else {
			m.canvas.DrawCircle(cx, cy, r)
		}
	}
}

func (m *Model) captureFrame() {
	charW, charH := 8, 16
	imgW, imgH := m.width*charW, m.height*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for y := 0; y < m.height*4; y++ {
		for x := 0; x < m.width*2; x++ {
			if !m.canvas.Lit(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF(path string) error {
	if len(m.frames) == 0 {
		return nil
	}
	delay := int(100/m.fps + 0.5)
	if delay < 2 {
		delay = 2
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
