package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/prefs"
	"github.com/muurk/musikremote/internal/settings"
	"github.com/muurk/musikremote/internal/urls"
)

// RiskPrompt describes a setting that must be explicitly affirmed before it
// is turned on
type RiskPrompt struct {
	Title        string
	Warnings     []string
	LearnMoreURL string
}

// PromptFor returns the dialog shown when the gated toggle key is switched on
func PromptFor(key prefs.Key) RiskPrompt {
	switch key {
	case settings.KeySSLEnabled:
		return RiskPrompt{
			Title: "ENABLE SSL",
			Warnings: []string{
				"The musikcube server must be behind a TLS-terminating proxy",
				"musikcube does not speak TLS itself; a plain server will refuse the connection",
				"Both the websocket and the audio port must be proxied",
			},
			LearnMoreURL: urls.SSLServerSetup,
		}
	default:
		f, _ := settings.Lookup(key)
		return RiskPrompt{
			Title:    strings.ToUpper(f.Label),
			Warnings: []string{f.Description},
		}
	}
}

// dialog buttons, in display order
const (
	buttonEnable = iota
	buttonDisable
	buttonLearnMore
)

var buttonLabels = []string{"Enable", "Disable", "Learn more"}

type riskKeyMap struct {
	Left    key.Binding
	Right   key.Binding
	Select  key.Binding
	Enable  key.Binding
	Disable key.Binding
	Learn   key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k riskKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Enable, k.Disable, k.Learn, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k riskKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Select},
		{k.Enable, k.Disable, k.Learn, k.Cancel},
	}
}

func newRiskKeyMap() riskKeyMap {
	return riskKeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h", "shift+tab"),
			key.WithHelp("←/h", "previous"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l", "tab"),
			key.WithHelp("→/l", "next"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Enable: key.NewBinding(
			key.WithKeys("y", "e"),
			key.WithHelp("y", "enable"),
		),
		Disable: key.NewBinding(
			key.WithKeys("n", "d"),
			key.WithHelp("n", "disable"),
		),
		Learn: key.NewBinding(
			key.WithKeys("m", "?"),
			key.WithHelp("m", "learn more"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// linkOpenedMsg reports the outcome of a "learn more" request
type linkOpenedMsg struct {
	url string
	err error
}

// RiskDialogModel asks the user to affirm or decline a risky toggle.
// Dismissing the dialog counts as declining.
type RiskDialogModel struct {
	prompt   RiskPrompt
	cursor   int
	done     bool
	affirmed bool
	note     string
	width    int
	open     func(string) error

	keys riskKeyMap
	help help.Model
}

// NewRiskDialog creates a dialog for prompt. open is used for the learn
// more button and defaults to OpenURL.
func NewRiskDialog(prompt RiskPrompt, open func(string) error) RiskDialogModel {
	if open == nil {
		open = OpenURL
	}
	return RiskDialogModel{
		prompt: prompt,
		cursor: buttonDisable,
		width:  GetTerminalWidth(),
		open:   open,
		keys:   newRiskKeyMap(),
		help:   help.New(),
	}
}

// Affirmed reports whether the user chose Enable
func (m RiskDialogModel) Affirmed() bool { return m.affirmed }

// Done reports whether the user has answered
func (m RiskDialogModel) Done() bool { return m.done }

// Init implements tea.Model
func (m RiskDialogModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m RiskDialogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width, nil)
		return m, nil

	case linkOpenedMsg:
		if msg.err != nil {
			logging.Warn("Could not open link", zap.String("url", msg.url), zap.Error(msg.err))
			m.note = "Could not open a browser. Visit " + msg.url
		} else {
			m.note = "Opened " + msg.url
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			return m.finish(false)
		case key.Matches(msg, m.keys.Enable):
			return m.finish(true)
		case key.Matches(msg, m.keys.Disable):
			return m.finish(false)
		case key.Matches(msg, m.keys.Learn):
			return m, m.learnMore()
		case key.Matches(msg, m.keys.Left):
			m.cursor = (m.cursor + m.buttonCount() - 1) % m.buttonCount()
		case key.Matches(msg, m.keys.Right):
			m.cursor = (m.cursor + 1) % m.buttonCount()
		case key.Matches(msg, m.keys.Select):
			switch m.cursor {
			case buttonEnable:
				return m.finish(true)
			case buttonDisable:
				return m.finish(false)
			case buttonLearnMore:
				return m, m.learnMore()
			}
		}
	}
	return m, nil
}

func (m RiskDialogModel) finish(affirmed bool) (tea.Model, tea.Cmd) {
	m.done = true
	m.affirmed = affirmed
	return m, tea.Quit
}

// learnMore opens the documentation link. The dialog stays up either way.
func (m RiskDialogModel) learnMore() tea.Cmd {
	url, open := m.prompt.LearnMoreURL, m.open
	if url == "" {
		return nil
	}
	return func() tea.Msg {
		return linkOpenedMsg{url: url, err: open(url)}
	}
}

// View implements tea.Model
func (m RiskDialogModel) View() string {
	if m.done {
		return ""
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, m.prompt.Title)))
	lines = append(lines, "")
	for _, w := range m.prompt.Warnings {
		lines = append(lines, FieldValueStyle.Render("   • "+w))
	}
	lines = append(lines, "")
	lines = append(lines, "   "+m.renderButtons())
	if m.note != "" {
		lines = append(lines, "", StepNoteStyle.Render("   "+m.note))
	}
	lines = append(lines, "")

	box := resultBoxStyle(m.width, WarningColor).Render(strings.Join(lines, "\n"))
	return box + "\n" + m.help.View(m.keys) + "\n"
}

// buttonCount hides "Learn more" when there is nothing to link to
func (m RiskDialogModel) buttonCount() int {
	if m.prompt.LearnMoreURL == "" {
		return buttonLearnMore
	}
	return len(buttonLabels)
}

func (m RiskDialogModel) renderButtons() string {
	buttons := make([]string, m.buttonCount())
	for i, label := range buttonLabels[:m.buttonCount()] {
		if i == m.cursor {
			buttons[i] = FocusedButtonStyle.Render(label)
		} else {
			buttons[i] = ButtonStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

// ConfirmRisk shows the dialog on in/out and returns whether the user
// affirmed. Errors come from the terminal, not from the user's answer.
func ConfirmRisk(prompt RiskPrompt, in io.Reader, out io.Writer) (bool, error) {
	model := NewRiskDialog(prompt, nil)
	p := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("risk dialog: %w", err)
	}
	return final.(RiskDialogModel).Affirmed(), nil
}
