package ui

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"agentteam/beacon"
	"agentteam/config"
)

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.ready = true
		a.refreshViewport(true)
		return a, nil

	case tea.BlurMsg:
		a.beacon.Fire(beacon.PageFor(a.dataModel.SelectedAgent), beacon.ReasonBlur)
		return a, nil

	case tea.FocusMsg:
		a.beacon.Rearm()
		return a, nil

	case spinner.TickMsg:
		if !a.dataModel.IsLoading {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		a.notice = ""
		return a.handleKey(msg)
	}

	// Everything else is a result of a synchronizer command.
	cmd := a.dataModel.Update(msg)
	a.refreshViewport(true)
	a.clampCursor()
	return a, a.withSpinner(cmd)
}

// withSpinner starts the loading spinner alongside cmd when an operation is
// in flight and the spinner is not already running.
func (a *AppView) withSpinner(cmd tea.Cmd) tea.Cmd {
	if !a.dataModel.IsLoading || a.spinning {
		return cmd
	}
	a.spinning = true
	return tea.Batch(cmd, a.loadingSpinner.Tick)
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := a.dataModel.Config.Keybindings

	// Global shortcuts work from every pane and modal.
	switch msg.String() {
	case "ctrl+c", kb.GetActionKey("quit"):
		return a, a.quit()
	case kb.GetActionKey("refresh"):
		cmd := a.dataModel.Refresh()
		a.refreshViewport(true)
		return a, a.withSpinner(cmd)
	case kb.GetActionKey("yank_last_reply"):
		a.copyLastReply()
		return a, nil
	}

	if a.showHelp {
		switch msg.String() {
		case kb.GetActionKey("help"), "esc", "q":
			a.showHelp = false
		}
		return a, nil
	}

	if a.showAbout {
		switch msg.String() {
		case kb.GetActionKey("about"), "esc", "q":
			a.showAbout = false
		}
		return a, nil
	}

	if a.filterMode {
		return a.handleFilterKey(msg)
	}

	if msg.String() == kb.GetActionKey("toggle_focus") || msg.String() == "shift+tab" {
		return a, a.toggleFocus()
	}

	if a.focus == focusInput {
		return a.handleInputKey(msg)
	}
	return a.handleListKey(msg)
}

func (a AppView) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := a.dataModel.Config.Keybindings
	entries := a.entries()
	switch msg.String() {
	case kb.GetActionKey("help"):
		a.showHelp = true
	case kb.GetActionKey("about"):
		a.showAbout = true
	case kb.GetActionKey("filter"):
		a.filterMode = true
		a.filterInput.SetValue("")
		a.filterInput.Focus()
		a.cursor = 0
		return a, textinput.Blink
	case kb.GetActionKey("list_down"), "down":
		if a.cursor < len(entries)-1 {
			a.cursor++
		}
	case kb.GetActionKey("list_up"), "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case kb.GetActionKey("list_top"), "home":
		a.cursor = 0
	case kb.GetActionKey("list_bottom"), "end":
		a.cursor = max(len(entries)-1, 0)
	case "enter":
		if a.cursor < len(entries) {
			return a, a.selectAgent(entries[a.cursor].Name)
		}
	case "esc":
		if a.dataModel.SelectedAgent != "" {
			return a, a.selectAgent("")
		}
	}
	return a, nil
}

func (a AppView) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.exitFilter()
		return a, nil
	case "enter":
		entries := a.entries()
		if a.cursor >= len(entries) {
			return a, nil
		}
		name := entries[a.cursor].Name
		a.exitFilter()
		return a, a.selectAgent(name)
	case "down", "ctrl+n":
		if a.cursor < len(a.entries())-1 {
			a.cursor++
		}
		return a, nil
	case "up", "ctrl+p":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	a.cursor = 0
	return a, cmd
}

func (a *AppView) exitFilter() {
	a.filterMode = false
	a.filterInput.Blur()
	a.filterInput.SetValue("")
	a.cursor = 0
}

func (a AppView) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return a, a.toggleFocus()
	case "enter":
		// Input is disabled while a send or load is in flight.
		if a.dataModel.IsLoading {
			return a, nil
		}
		cmd := a.dataModel.SendMessage(a.textarea.Value())
		if cmd == nil {
			a.refreshViewport(true)
			return a, nil
		}
		a.textarea.Reset()
		a.refreshViewport(true)
		return a, a.withSpinner(cmd)
	}

	if a.dataModel.IsLoading {
		return a, nil
	}
	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

// selectAgent switches the conversation to name and moves focus to the
// input when something was selected.
func (a *AppView) selectAgent(name string) tea.Cmd {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] Selecting %q", name)
	}
	cmd := a.dataModel.SelectAgent(name)
	for i, e := range a.entries() {
		if e.Name == name {
			a.cursor = i
			break
		}
	}
	a.refreshViewport(true)

	var focusCmd tea.Cmd
	if name != "" {
		a.focus = focusInput
		focusCmd = a.textarea.Focus()
	}
	return tea.Batch(a.withSpinner(cmd), focusCmd)
}

func (a *AppView) toggleFocus() tea.Cmd {
	if a.focus == focusList {
		a.focus = focusInput
		return a.textarea.Focus()
	}
	a.focus = focusList
	a.textarea.Blur()
	return nil
}

func (a *AppView) clampCursor() {
	n := len(a.entries())
	if a.cursor >= n {
		a.cursor = max(n-1, 0)
	}
}

func (a *AppView) copyLastReply() {
	reply, ok := a.dataModel.LastAgentReply()
	if !ok {
		a.notice = "Nothing to copy yet"
		return
	}
	if err := clipboardWrite(reply.Content); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Clipboard write failed: %v", err)
		}
		a.notice = "Copy failed: " + err.Error()
		return
	}
	a.notice = "Copied reply from " + reply.Sender
}

// quit sends the exit beacon, gives it a bounded amount of time to leave,
// then stops the program.
func (a *AppView) quit() tea.Cmd {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] Quit requested")
	}
	if a.beacon.Fire(beacon.PageFor(a.dataModel.SelectedAgent), beacon.ReasonQuit) {
		a.beacon.Wait(quitBeaconWait)
	}
	return tea.Quit
}
