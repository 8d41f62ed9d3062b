// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Walks a rep through one onsite visit: customer, questions, details, summary
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/harperreed/onsite/interview"
	"github.com/harperreed/onsite/models"
	"github.com/harperreed/onsite/recording"
	"github.com/harperreed/onsite/visit"
)

// Deps are the services the TUI drives. Intro and Question are the two
// recording surfaces; the TUI rebinds them as the rep moves through a visit.
type Deps struct {
	Workspace *visit.Workspace
	Intro     *recording.Controller
	Question  *recording.Controller
	Logger    *log.Logger
	ExportDir string
}

// tickMsg redraws the recording timer.
type tickMsg time.Time

// changedMsg means a recorder changed state or wrote back an answer.
type changedMsg struct{}

type recordDoneMsg struct {
	action string
	err    error
}

type summaryDoneMsg struct {
	text string
	err  error
}

type uploadDoneMsg struct {
	id  string
	err error
}

type exportDoneMsg struct {
	path string
	err  error
}

// Model is the main bubbletea model
type Model struct {
	ws        *visit.Workspace
	intro     *recording.Controller
	question  *recording.Controller
	logger    *log.Logger
	exportDir string
	changes   chan struct{}

	step     interview.Step
	browsing bool
	nav      *interview.Navigator

	// Start view state
	drafts        []models.Visit
	draftCursor   int
	confirmDelete string

	// Customer view state
	customerInputs []textinput.Model
	overview       textarea.Model
	customerFocus  int

	// Prompt view state
	notes      textarea.Model
	uploading  bool
	uploadPath textinput.Model

	// Details view state
	section       detailSection
	listCursor    int
	contactInputs []textinput.Model
	actionInputs  []textinput.Model
	attachInputs  []textinput.Model
	followInputs  []textinput.Model
	detailFocus   int

	// Summary view state
	summaryView viewport.Model
	busy        string

	// Repository view state
	search       textinput.Model
	results      []models.Visit
	resultCursor int
	preview      viewport.Model

	spinner  spinner.Model
	progress progress.Model

	status    string
	statusErr bool
	width     int
	height    int
}

// NewModel creates a new TUI model
func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	changes := make(chan struct{}, 1)
	signal := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	deps.Intro.OnChange(signal)
	deps.Question.OnChange(signal)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle

	m := Model{
		ws:          deps.Workspace,
		intro:       deps.Intro,
		question:    deps.Question,
		logger:      logger,
		exportDir:   deps.ExportDir,
		changes:     changes,
		step:        interview.StepStart,
		nav:         interview.NewNavigator(len(models.DefaultPrompts)),
		summaryView: viewport.New(80, 14),
		preview:     viewport.New(80, 10),
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width:       80,
		height:      24,
	}
	m.initCustomerForm()
	m.initPromptForm()
	m.initDetailForms()
	m.initRepositoryForm()
	m.loadDrafts()
	return m
}

// Run starts the full-screen program and releases all media when it exits.
func Run(deps Deps) error {
	m := NewModel(deps)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()

	deps.Intro.StopAllMedia()
	deps.Question.StopAllMedia()
	deps.Intro.Wait()
	deps.Question.Wait()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForChange(m.changes), m.spinner.Tick, textinput.Blink)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tickMsg:
		return m, tick()
	case changedMsg:
		m.syncFromVisit()
		return m, waitForChange(m.changes)
	case recordDoneMsg:
		if msg.err != nil {
			m.setError(describeError(msg.err))
		} else if msg.action != "" {
			m.setStatus(msg.action)
		}
		m.syncFromVisit()
		return m, nil
	case summaryDoneMsg:
		return m.handleSummaryDone(msg), nil
	case uploadDoneMsg:
		return m.handleUploadDone(msg), nil
	case exportDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.setError("Export failed: " + msg.err.Error())
		} else {
			m.setStatus("Saved " + msg.path)
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var body string
	if m.browsing {
		body = m.renderRepositoryView()
	} else {
		switch m.step {
		case interview.StepStart:
			body = m.renderStartView()
		case interview.StepCustomerInfo:
			body = m.renderCustomerView()
		case interview.StepPrompts:
			body = m.renderPromptView()
		case interview.StepDetails:
			body = m.renderDetailsView()
		case interview.StepSummary:
			body = m.renderSummaryView()
		}
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("ONSITE RECAP"))
	s.WriteString("\n")
	if !m.browsing && m.step != interview.StepStart {
		s.WriteString(m.renderStages())
		s.WriteString("\n\n")
	}
	s.WriteString(body)
	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	return s.String()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyCtrlC {
		m.intro.StopAllMedia()
		m.question.StopAllMedia()
		return m, tea.Quit
	}

	if msg.String() != KeyDelete {
		m.confirmDelete = ""
	}

	if m.browsing {
		return m.handleRepositoryKeys(msg)
	}

	switch m.step {
	case interview.StepStart:
		return m.handleStartKeys(msg)
	case interview.StepCustomerInfo:
		return m.handleCustomerKeys(msg)
	case interview.StepPrompts:
		return m.handlePromptKeys(msg)
	case interview.StepDetails:
		return m.handleDetailsKeys(msg)
	case interview.StepSummary:
		return m.handleSummaryKeys(msg)
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	m.overview.SetWidth(inner)
	m.notes.SetWidth(inner)
	m.progress.Width = inner
	m.summaryView.Width = inner
	m.summaryView.Height = max(height-14, 5)
	m.preview.Width = inner
	m.preview.Height = max(height/2-4, 5)
}

// goTo moves the flow to a step, stopping and rebinding recorders on the way.
func (m *Model) goTo(step interview.Step) {
	switch step {
	case interview.StepStart:
		m.intro.StopAllMedia()
		m.question.StopAllMedia()
		m.loadDrafts()
	case interview.StepCustomerInfo:
		m.question.StopAllMedia()
		m.intro.Rebind(m.ws.IntroBinding())
		m.loadCustomerForm()
	case interview.StepPrompts:
		m.intro.StopAllMedia()
		m.bindQuestion()
	case interview.StepDetails:
		m.intro.StopAllMedia()
		m.question.StopAllMedia()
		m.loadDetailForms()
	case interview.StepSummary:
		m.intro.StopAllMedia()
		m.question.StopAllMedia()
		m.refreshSummary()
	}
	m.browsing = false
	m.step = step
}

// beginVisit starts a fresh visit and opens the customer step.
func (m *Model) beginVisit() {
	if _, err := m.ws.Begin(); err != nil {
		m.setError("Could not start visit: " + err.Error())
		return
	}
	m.nav.Seek(0)
	m.goTo(interview.StepCustomerInfo)
	m.setStatus("New visit started")
}

// openVisit makes a saved visit active and jumps to step.
func (m *Model) openVisit(v models.Visit, step interview.Step) {
	m.intro.StopAllMedia()
	m.question.StopAllMedia()
	if _, err := m.ws.Open(v.ID); err != nil {
		m.setError("Could not open visit: " + err.Error())
		return
	}
	m.nav.Seek(0)
	m.goTo(step)
}

// mutate applies fn to the active visit and reports failures in the status line.
func (m *Model) mutate(fn func(v *models.Visit) error) bool {
	if err := m.ws.Mutate(fn); err != nil {
		m.setError(describeError(err))
		return false
	}
	return true
}

// syncFromVisit refreshes widgets that mirror data a recorder may have written.
func (m *Model) syncFromVisit() {
	switch m.step {
	case interview.StepCustomerInfo:
		if v := m.ws.Active(); v != nil && m.customerFocus != overviewField {
			m.overview.SetValue(v.CustomerSummary)
		}
	case interview.StepSummary:
		m.refreshSummary()
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
	m.logger.Warn("shown to user", "message", s)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, models.ErrDeviceUnavailable):
		return "Microphone unavailable: " + err.Error()
	case errors.Is(err, recording.ErrBusy):
		return "Recorder is busy, wait for it to finish"
	case errors.Is(err, recording.ErrNothingToPlay):
		return "Nothing recorded yet"
	case errors.Is(err, recording.ErrPlaybackUnavailable):
		return "Playback unavailable: " + err.Error()
	case errors.Is(err, models.ErrGenerationUnavailable):
		return "No summary provider configured. Set a provider and API key in config.toml."
	case errors.Is(err, models.ErrNotAuthorized):
		return "Google Drive is not connected. Run `onsite auth` first."
	}
	return err.Error()
}

func (m Model) renderStages() string {
	v := m.ws.Active()

	var tabs []string
	for _, stage := range interview.Stages {
		switch interview.Status(m.step, stage) {
		case interview.StageCurrent:
			tabs = append(tabs, tabActiveStyle.Render(stage.String()))
		case interview.StageCompleted:
			tabs = append(tabs, tabDoneStyle.Render("✓ "+stage.String()))
		default:
			tabs = append(tabs, tabInactiveStyle.Render(stage.String()))
		}
	}

	pct := interview.Progress(m.step, v)
	bar := m.progress.ViewAs(float64(pct) / 100)
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" + bar + fmt.Sprintf(" %d%%", pct)
}

func (m Model) renderStatus() string {
	if m.busy != "" {
		return m.spinner.View() + " " + busyStyle.Render(m.busy)
	}
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render("✗ " + m.status)
	}
	return messageStyle.Render(m.status)
}

func renderHelp(keys ...string) string {
	return helpStyle.Render(strings.Join(keys, " • "))
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	tabDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	recordingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	readyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(14)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
