package model

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Drain runs cmd and every follow-up command on the calling goroutine,
// applying each result through Update. Batches run in order. It is the
// synchronous counterpart of the bubbletea loop, used by the CLI.
func (m *Model) Drain(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if follow := m.Update(msg); follow != nil {
			queue = append(queue, follow)
		}
	}
}
