package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"agentteam/api"
	"agentteam/beacon"
	appmodel "agentteam/model"
)

type focusArea int

const (
	focusList focusArea = iota
	focusInput
)

const (
	listPaneMaxWidth = 34
	inputHeight      = 3
	// quitBeaconWait bounds how long quitting waits for the exit beacon.
	quitBeaconWait = 2 * time.Second
)

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model
	beacon    *beacon.Beacon

	// UI Components
	viewport       viewport.Model
	textarea       textarea.Model
	filterInput    textinput.Model
	loadingSpinner spinner.Model
	markdown       *markdownRenderer

	// Window state
	width  int
	height int
	ready  bool

	focus      focusArea
	cursor     int
	filterMode bool
	showHelp   bool
	showAbout  bool
	spinning   bool
	notice     string // transient status text, cleared on the next key

	version string
	now     func() time.Time
}

func NewAppView(dataModel *appmodel.Model, exitBeacon *beacon.Beacon) AppView {
	ta := textarea.New()
	kb := dataModel.Config.Keybindings
	ta.Placeholder = "Type your message... (Enter to send, " + kb.DisplayActionKey("new_line") + " for a new line)"
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)
	ta.SetWidth(80)

	// Enter alone sends (handled separately)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys(kb.GetActionKey("new_line")))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	filterInput := textinput.New()
	filterInput.Prompt = "Filter: "
	filterInput.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AssistantStyle

	return AppView{
		dataModel:      dataModel,
		beacon:         exitBeacon,
		viewport:       viewport.New(0, 0),
		textarea:       ta,
		filterInput:    filterInput,
		loadingSpinner: sp,
		markdown:       newMarkdownRenderer(),
		focus:          focusList,
		now:            time.Now,
	}
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		a.dataModel.Init(),
	)
}

// Model exposes the synchronizer state, mainly for tests.
func (a AppView) Model() *appmodel.Model {
	return a.dataModel
}

// entries is the agent pane content after filtering.
func (a AppView) entries() []listEntry {
	all := agentEntries(a.dataModel.Agents)
	if !a.filterMode {
		return all
	}
	return filterEntries(all, a.filterInput.Value())
}

func (a AppView) listWidth() int {
	w := a.width / 3
	if w > listPaneMaxWidth {
		w = listPaneMaxWidth
	}
	if w < 16 {
		w = 16
	}
	return w
}

// conversationWidth is the inner width of the right pane.
func (a AppView) conversationWidth() int {
	return max(a.width-a.listWidth()-4, 10)
}

// layout sizes the viewport and input to the window.
func (a *AppView) layout() {
	convWidth := a.conversationWidth()
	// borders (2) + header (2) + separator (1) + input + status bar (1)
	vpHeight := a.height - 2 - 2 - 1 - inputHeight - 1
	a.viewport.Width = convWidth
	a.viewport.Height = max(vpHeight, 1)
	a.textarea.SetWidth(convWidth)
}

// refreshViewport re-renders the conversation into the viewport.
func (a *AppView) refreshViewport(gotoBottom bool) {
	m := a.dataModel
	if m.SelectedAgent == "" || len(m.Messages) == 0 {
		a.viewport.SetContent("")
		return
	}
	a.viewport.SetContent(renderMessages(m.Messages, a.markdown, a.viewport.Width, a.now()))
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading AgentTeam..."
	}

	if a.showHelp {
		return a.renderHelpModal()
	}
	if a.showAbout {
		return a.renderAboutModal()
	}

	m := a.dataModel
	listStyle, convStyle := PaneStyle, FocusedPaneStyle
	if a.focus == focusList {
		listStyle, convStyle = FocusedPaneStyle, PaneStyle
	}

	paneHeight := a.height - 3
	listPane := listStyle.Render(renderAgentList(
		a.entries(),
		len(m.Agents),
		a.cursor,
		m.SelectedAgent,
		a.filterInput.View(),
		a.filterMode,
		a.listWidth(),
		paneHeight,
	))

	convWidth := a.conversationWidth()
	var conversation string
	if m.SelectedAgent == "" {
		conversation = renderWelcome(m.Project, len(m.Agents), convWidth, paneHeight)
	} else {
		var agent *api.AgentInfo
		if info, ok := m.Agent(m.SelectedAgent); ok {
			agent = &info
		}

		header := renderConversationHeader(m.SelectedAgent, agent, m.Messages, a.now(), convWidth)

		body := a.viewport.View()
		switch {
		case m.IsLoading && len(m.Messages) == 0:
			body = lipgloss.Place(convWidth, a.viewport.Height, lipgloss.Center, lipgloss.Center,
				a.loadingSpinner.View()+" Loading conversation...")
		case len(m.Messages) == 0:
			body = renderEmptyConversation(m.SelectedAgent, convWidth, a.viewport.Height)
		}

		conversation = lipgloss.JoinVertical(lipgloss.Left,
			header,
			body,
			DimStyle.Render(repeatRule(convWidth)),
			a.inputView(),
		)
	}
	convPane := convStyle.Width(convWidth).Height(paneHeight).Render(conversation)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, listPane, convPane),
		a.statusBar(),
	)
}

func (a AppView) inputView() string {
	if a.dataModel.IsLoading {
		return DimStyle.Render(a.loadingSpinner.View() + " Waiting for the agents to reply...")
	}
	return a.textarea.View()
}
