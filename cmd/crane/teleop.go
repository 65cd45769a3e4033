package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	"github.com/golang/geo/r2"

	"github.com/gwillem/crane/pkg/crane"
	"github.com/gwillem/crane/pkg/sim"
	"github.com/gwillem/crane/pkg/teleop"
)

type TeleopCommand struct {
	Hz     int    `long:"hz" default:"50" description:"Control loop frequency"`
	Config string `long:"config" description:"Path to crane config JSON (defaults built in)"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 3 // legend row + status row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border

	factorStep = 0.2 // joystick increment per keypress
)

const (
	pivotColor    = "208" // orange
	elevatorColor = "51"  // cyan
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type teleopModel struct {
	ctrl   *teleop.Controller
	cfg    crane.Config
	chart  *streamlinechart.Model
	width  int
	height int
	logs   []string

	state     teleop.State
	haveState bool

	pivotFactor    float64
	elevatorFactor float64

	quitting bool
}

func (m *teleopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *teleopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *teleopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialTeleopModel(ctrl *teleop.Controller, cfg crane.Config) teleopModel {
	// Y range covers both axes: pivot in radians, elevator in meters.
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-0.5, 1.6),
	)
	chart.SetDataSetStyles("pivot", runes.ThinLineStyle,
		lipgloss.NewStyle().Foreground(lipgloss.Color(pivotColor)))
	chart.SetDataSetStyles("elevator", runes.ThinLineStyle,
		lipgloss.NewStyle().Foreground(lipgloss.Color(elevatorColor)))

	return teleopModel{
		ctrl:  ctrl,
		cfg:   cfg,
		chart: &chart,
	}
}

func (m teleopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func clampFactor(f float64) float64 {
	if f > 1 {
		return 1
	}
	if f < -1 {
		return -1
	}
	return f
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "left":
			m.pivotFactor = clampFactor(m.pivotFactor - factorStep)
			m.ctrl.SetFactors(m.pivotFactor, m.elevatorFactor)
		case "right":
			m.pivotFactor = clampFactor(m.pivotFactor + factorStep)
			m.ctrl.SetFactors(m.pivotFactor, m.elevatorFactor)
		case "up":
			m.elevatorFactor = clampFactor(m.elevatorFactor + factorStep)
			m.ctrl.SetFactors(m.pivotFactor, m.elevatorFactor)
		case "down":
			m.elevatorFactor = clampFactor(m.elevatorFactor - factorStep)
			m.ctrl.SetFactors(m.pivotFactor, m.elevatorFactor)

		case " ":
			m.pivotFactor, m.elevatorFactor = 0, 0
			m.ctrl.SetFactors(0, 0)

		case "1":
			m.pivotFactor, m.elevatorFactor = 0, 0
			m.ctrl.MoveTo(r2.Point{X: m.cfg.PivotHome, Y: m.cfg.ElevatorHome})
		case "2":
			m.pivotFactor, m.elevatorFactor = 0, 0
			m.ctrl.MoveTo(r2.Point{X: 0, Y: 0.8})
		case "3":
			m.pivotFactor, m.elevatorFactor = 0, 0
			m.ctrl.MoveTo(r2.Point{X: -0.3, Y: 0.3})
		}

	case stateMsg:
		state := teleop.State(msg)
		if state.Error == nil {
			m.chart.PushDataSet("pivot", state.Position.X)
			m.chart.PushDataSet("elevator", state.Position.Y)
			m.chart.DrawAll()
			m.state = state
			m.haveState = true
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m teleopModel) View() string {
	if m.quitting {
		return "Crane stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Crane Teleoperate"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend and status
	sb.WriteString(renderLegend())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("arrows: drive  space: hold  1-3: presets  q: quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	pivot := lipgloss.NewStyle().Foreground(lipgloss.Color(pivotColor)).Bold(true)
	elevator := lipgloss.NewStyle().Foreground(lipgloss.Color(elevatorColor)).Bold(true)
	return pivot.Render("━━") + " pivot (rad)  " + elevator.Render("━━") + " elevator (m)"
}

func (m teleopModel) renderStatus() string {
	if !m.haveState {
		return statusStyle.Render("waiting for first state...")
	}
	s := m.state
	status := fmt.Sprintf("%s  a=%+.3f h=%.3f  goal=(%+.3f, %.3f)  drive=(%+.1f, %+.1f)",
		s.HomingState, s.Position.X, s.Position.Y, s.Goal.X, s.Goal.Y,
		m.pivotFactor, m.elevatorFactor)
	if s.AtGoal {
		status += fmt.Sprintf("  at goal #%d", s.Serial)
	}
	return statusStyle.Render(status)
}

func (c *TeleopCommand) Execute(args []string) error {
	craneCfg := crane.DefaultConfig()
	if c.Config != "" {
		var err error
		craneCfg, err = crane.LoadConfig(c.Config)
		if err != nil {
			return err
		}
	}

	ctrl, err := teleop.NewController(teleop.Config{
		Crane: craneCfg,
		Sim:   sim.DefaultConfig(),
		Hz:    c.Hz,
	})
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()

	p := tea.NewProgram(initialTeleopModel(ctrl, craneCfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
