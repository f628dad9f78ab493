package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/boxsim/internal/config"
)

var presetInfo = map[string]string{
	"default": "fifteen random particles",
	"dense":   "crowded box, grid broad phase",
	"drop":    "a single ball dropped from height",
	"rigid":   "stiff contacts, small steps",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// LaunchFunc turns an edited config into a running box model.
type LaunchFunc func(name string, cfg *config.Config) (Model, error)

// knob is one editable config value on the config screen.
type knob struct {
	name string
	step float64
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var knobs = []knob{
	{"count", 1,
		func(c *config.Config) float64 { return float64(c.Particles.Count) },
		func(c *config.Config, v float64) { c.Particles.Count = max(int(v), 1) }},
	{"gravity", 0.1,
		func(c *config.Config) float64 { return c.Gravity },
		func(c *config.Config, v float64) { c.Gravity = v }},
	{"elasticity", 0.5,
		func(c *config.Config) float64 { return c.Elasticity },
		func(c *config.Config, v float64) { c.Elasticity = max(v, 0) }},
	{"fps", 5,
		func(c *config.Config) float64 { return c.FPS },
		func(c *config.Config, v float64) { c.FPS = max(v, 1) }},
	{"seed", 1,
		func(c *config.Config) float64 { return float64(c.Seed) },
		func(c *config.Config, v float64) { c.Seed = uint64(max(v, 0)) }},
}

// Picker chooses a preset, lets the user tune a few values and then
// hands over to the live box model.
type Picker struct {
	state      int
	cursor     int
	presets    []string
	selected   string
	cfg        *config.Config
	knobCursor int
	launch     LaunchFunc
	err        error
	live       Model
}

func NewPicker(launch LaunchFunc) *Picker {
	return &Picker{
		state:   stateMenu,
		presets: config.ListPresets(),
		launch:  launch,
	}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.state == stateSim {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch p.state {
		case stateMenu:
			return p.menuKey(msg)
		case stateConfig:
			return p.configKey(msg)
		}
	}
	return p, nil
}

func (p Picker) menuKey(msg tea.KeyMsg) (Picker, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.presets)-1 {
			p.cursor++
		}
	case "enter", " ":
		p.selected = p.presets[p.cursor]
		p.cfg = config.GetPreset(p.selected)
		p.state, p.knobCursor, p.err = stateConfig, 0, nil
	}
	return p, nil
}

func (p Picker) configKey(msg tea.KeyMsg) (Picker, tea.Cmd) {
	k := knobs[p.knobCursor]
	switch msg.String() {
	case "ctrl+c":
		return p, tea.Quit
	case "esc", "q":
		p.state = stateMenu
	case "up", "k":
		if p.knobCursor > 0 {
			p.knobCursor--
		}
	case "down", "j":
		if p.knobCursor < len(knobs)-1 {
			p.knobCursor++
		}
	case "left", "h":
		k.set(p.cfg, k.get(p.cfg)-k.step)
	case "right", "l":
		k.set(p.cfg, k.get(p.cfg)+k.step)
	case "enter", "s":
		return p.start()
	}
	return p, nil
}

func (p Picker) start() (Picker, tea.Cmd) {
	if err := p.cfg.Validate(); err != nil {
		p.err = err
		return p, nil
	}
	live, err := p.launch(p.selected, p.cfg)
	if err != nil {
		p.err = err
		return p, nil
	}
	p.live, p.state = live, stateSim
	return p, live.Init()
}

func (p Picker) View() string {
	switch p.state {
	case stateConfig:
		return p.viewConfig()
	case stateSim:
		return p.live.View()
	}
	return p.viewMenu()
}

func (p Picker) header(title, sub string) string {
	theme := CurrentTheme
	return "\n\n    " + GradientText(title, theme.Primary, theme.Secondary) +
		"\n    " + Subtle.Render(sub) + "\n    " + Separator(26) + "\n\n"
}

func (p Picker) viewMenu() string {
	var b strings.Builder
	b.WriteString(p.header("BOXSIM", "particles in a box"))
	for i, name := range p.presets {
		line := fmt.Sprintf("%-10s %s", name, presetInfo[name])
		if i == p.cursor {
			b.WriteString("    " + Selected().Render("▸ "+line) + "\n")
		} else {
			b.WriteString("      " + Subtle.Render(line) + "\n")
		}
	}
	b.WriteString("\n    " + KeyHint.Render("j/k navigate  enter select  q quit") + "\n")
	return b.String()
}

func (p Picker) viewConfig() string {
	var b strings.Builder
	b.WriteString(p.header(strings.ToUpper(p.selected), presetInfo[p.selected]))
	for i, k := range knobs {
		line := MetricLabel.Render(fmt.Sprintf("%-10s", k.name)) + " " + MetricValue.Render(fmt.Sprintf("%8.3g", k.get(p.cfg)))
		if i == p.knobCursor {
			b.WriteString("    " + Selected().Render("▸ ") + line + "\n")
		} else {
			b.WriteString("      " + line + "\n")
		}
	}
	if p.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n    " + KeyHint.Render("j/k select  h/l adjust  s start  esc back") + "\n")
	return b.String()
}

// RunInteractive runs the picker until the user quits.
func RunInteractive(launch LaunchFunc) error {
	_, err := tea.NewProgram(NewPicker(launch), tea.WithAltScreen()).Run()
	return err
}
