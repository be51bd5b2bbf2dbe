package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/handlers"
	"github.com/jwebster45206/eryndor/pkg/chat"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	AgentName       = "Game Master"
	PlaceHolderText = "What do you do?"
	requestTimeout  = 90 * time.Second
)

type entryKind int

const (
	entryUser entryKind = iota
	entryNarrator
	entryNotice
	entryError
)

type entry struct {
	kind entryKind
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api          *apiClient
	profile      *state.Profile
	skills       []state.Skill
	sessionID    uuid.UUID
	entries      []entry
	events       <-chan SSEEvent
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool

	lastAction    string
	lastFailed    bool
	lastNarrative string

	showQuitModal bool
	progressTick  int
}

type turnResultMsg struct {
	action   string
	response *chat.TurnResponse
	err      error
}

type profileMsg struct {
	profile *state.Profile
	skills  []state.Skill
	err     error
}

type summaryMsg struct {
	summary string
	err     error
}

type alertsMsg struct {
	alerts []state.WorldChange
	err    error
}

type worldEventMsg struct {
	event SSEEvent
	ok    bool
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")). // gold
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")).
			Bold(true).
			Align(lipgloss.Center)
)

var titleCase = cases.Title(language.English)

const helpText = `Commands:
• /retry - Resubmit your last action after a failure
• /summary - Summarize your adventure so far
• /alerts - Show recent changes to the world
• /copy - Copy the last narrative to the clipboard
• /help - Show this help
• Ctrl+C - Quit

Describe what your character does and press Enter.`

func NewConsoleUI(api *apiClient, profile *state.Profile, session *handlers.SessionResponse, events <-chan SSEEvent) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	m := ConsoleUI{
		api:          api,
		profile:      profile,
		events:       events,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: viewport.New(20, 20),
	}

	if session != nil {
		if session.Session != nil {
			m.sessionID = session.Session.ID
		}
		for _, msg := range session.Messages {
			if msg.Role == chat.ChatRoleUser {
				m.entries = append(m.entries, entry{kind: entryUser, text: msg.Content})
				continue
			}
			m.entries = append(m.entries, entry{kind: entryNarrator, text: msg.Content})
			m.lastNarrative = msg.Content
		}
	}
	return m
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.refreshProfile(), m.waitForWorldEvent())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.72) - 4
		metaWidth := m.width - chatWidth - 6
		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writePlayerPanel(m.profile, m.skills))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			return m.submitAction(input)
		}

	case turnResultMsg:
		m.loading = false
		if msg.err != nil {
			m.lastFailed = true
			m.entries = append(m.entries, entry{kind: entryError, text: msg.err.Error() + " (type /retry to try again)"})
			m.writeChatContent()
			return m, nil
		}
		m.lastFailed = false
		if msg.response.SessionID != nil {
			m.sessionID = *msg.response.SessionID
		}
		m.lastNarrative = msg.response.Response
		m.entries = append(m.entries, entry{kind: entryNarrator, text: msg.response.Response})
		m.writeChatContent()
		return m, m.refreshProfile()

	case profileMsg:
		if msg.err == nil {
			m.profile = msg.profile
			m.skills = msg.skills
			m.metaViewport.SetContent(writePlayerPanel(m.profile, m.skills))
		}
		return m, nil

	case summaryMsg:
		m.loading = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{kind: entryError, text: msg.err.Error()})
		} else {
			m.entries = append(m.entries, entry{kind: entryNotice, text: "Your adventure so far:\n" + msg.summary})
		}
		m.writeChatContent()
		return m, nil

	case alertsMsg:
		m.loading = false
		switch {
		case msg.err != nil:
			m.entries = append(m.entries, entry{kind: entryError, text: msg.err.Error()})
		case len(msg.alerts) == 0:
			m.entries = append(m.entries, entry{kind: entryNotice, text: "No new changes in the world."})
		default:
			m.entries = append(m.entries, entry{kind: entryNotice, text: formatAlerts(msg.alerts)})
		}
		m.writeChatContent()
		return m, nil

	case worldEventMsg:
		if !msg.ok {
			m.events = nil
			return m, nil
		}
		if text := formatWorldEvent(msg.event); text != "" {
			m.entries = append(m.entries, entry{kind: entryNotice, text: text})
			m.writeChatContent()
		}
		return m, m.waitForWorldEvent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) submitAction(action string) (tea.Model, tea.Cmd) {
	m.lastAction = action
	m.loading = true
	m.progressTick = 0
	m.entries = append(m.entries, entry{kind: entryUser, text: action})
	m.writeChatContent()
	return m, tea.Batch(m.sendTurn(action), progressTick())
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		m.entries = append(m.entries, entry{kind: entryNotice, text: helpText})

	case "/retry":
		if !m.lastFailed || m.lastAction == "" {
			m.entries = append(m.entries, entry{kind: entryNotice, text: "Nothing to retry."})
			break
		}
		return m.submitAction(m.lastAction)

	case "/summary":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.generateSummary(), progressTick())

	case "/alerts":
		m.loading = true
		return m, m.loadAlerts()

	case "/copy":
		if m.lastNarrative == "" {
			m.entries = append(m.entries, entry{kind: entryNotice, text: "Nothing to copy yet."})
			break
		}
		if err := clipboard.WriteAll(m.lastNarrative); err != nil {
			m.entries = append(m.entries, entry{kind: entryError, text: "Copy failed: " + err.Error()})
			break
		}
		m.entries = append(m.entries, entry{kind: entryNotice, text: "Copied the last narrative to the clipboard."})

	default:
		m.entries = append(m.entries, entry{kind: entryNotice, text: "Unknown command " + cmd + ". Type /help for commands."})
	}

	m.writeChatContent()
	return m, nil
}

// writeChatContent renders every entry for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ERYNDOR") + "\n\n")
	content.WriteString("Your adventure continues. Type /help for commands.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, e := range m.entries {
		switch e.kind {
		case entryUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(e.text, chatWidth-6) + "\n\n")
		case entryNarrator:
			content.WriteString(formatNarratorResponse(e.text, chatWidth) + "\n\n")
		case entryNotice:
			content.WriteString(noticeStyle.Render(wordwrap.String(e.text, chatWidth)) + "\n\n")
		case entryError:
			content.WriteString(errorStyle.Render("Error: "+wordwrap.String(e.text, chatWidth-7)) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func writePlayerPanel(p *state.Profile, skills []state.Skill) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURER") + "\n\n")
	if p == nil {
		content.WriteString("Loading...\n")
		return content.String()
	}

	content.WriteString(p.DisplayName + "\n\n")
	content.WriteString(fmt.Sprintf("Level: %d\n", p.Level))
	content.WriteString(fmt.Sprintf("XP: %d\n\n", p.Experience))
	content.WriteString("Location:\n")
	content.WriteString(p.CurrentLocation + "\n")
	content.WriteString(promptStyle.Render(p.CurrentRegion) + "\n\n")

	content.WriteString(fmt.Sprintf("Skills (%d/%d):\n", len(skills), p.SkillSlots))
	if len(skills) == 0 {
		content.WriteString("None learned\n")
	}
	for _, s := range skills {
		content.WriteString(fmt.Sprintf("• %s (%s)\n", s.Name, titleCase.String(s.Element)))
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+C: Quit\n")
	return content.String()
}

func formatAlerts(alerts []state.WorldChange) string {
	var b strings.Builder
	b.WriteString("News from the realm:")
	for _, a := range alerts {
		b.WriteString(fmt.Sprintf("\n• %s, %s: %s (by %s)", a.Location, a.Region, a.ChangeSummary, a.ChangedByPlayerName))
	}
	return b.String()
}

func formatWorldEvent(ev SSEEvent) string {
	if ev.Type != "world.change" {
		return ""
	}
	location, _ := ev.Data["location"].(string)
	summary, _ := ev.Data["change_summary"].(string)
	by, _ := ev.Data["changed_by_player_name"].(string)
	if summary == "" {
		return ""
	}
	return fmt.Sprintf("The world shifts at %s: %s (by %s)", location, summary, by)
}

func formatNarratorResponse(response string, width int) string {
	hasPrefix := false
	if idx := strings.Index(response, ":"); idx > 0 && idx <= 20 {
		if len(strings.Fields(response[:idx])) <= 2 {
			hasPrefix = true
		}
	}

	wrapWidth := width
	if !hasPrefix {
		wrapWidth = width - len(AgentName+": ")
	}

	lines := strings.Split(wordwrap.String(response, wrapWidth), "\n")
	formattedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}
		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			if len(strings.Fields(speaker)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(speaker+":")+trimmed[idx+1:])
				continue
			}
		}
		formattedLines = append(formattedLines, line)
	}

	result := strings.Join(formattedLines, "\n")
	if !hasPrefix {
		result = narratorStyle.Render(AgentName+": ") + result
	}
	return result
}

func (m ConsoleUI) sendTurn(action string) tea.Cmd {
	api, sessionID := m.api, m.sessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := api.sendTurn(ctx, sessionID, action)
		return turnResultMsg{action: action, response: resp, err: err}
	}
}

func (m ConsoleUI) refreshProfile() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		profile, err := api.getProfile(ctx)
		if err != nil {
			return profileMsg{err: err}
		}
		skills, err := api.listSkills(ctx)
		return profileMsg{profile: profile, skills: skills, err: err}
	}
}

func (m ConsoleUI) generateSummary() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		summary, err := api.generateSummary(ctx)
		return summaryMsg{summary: summary, err: err}
	}
}

// loadAlerts fetches unseen alerts and acknowledges the ones it shows.
func (m ConsoleUI) loadAlerts() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		alerts, err := api.unseenAlerts(ctx)
		if err != nil {
			return alertsMsg{err: err}
		}
		for _, a := range alerts {
			if err := api.markAlertSeen(ctx, a.ID); err != nil {
				return alertsMsg{alerts: alerts, err: err}
			}
		}
		return alertsMsg{alerts: alerts}
	}
}

func (m ConsoleUI) waitForWorldEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		return worldEventMsg{event: ev, ok: ok}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave Eryndor?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is saved with every turn.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	usable = min(max(usable, 10), 80)

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
