package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/synapse-news/synapse-client/pkg/client"
)

// View renders the tabs, the visible slice of the list and the status line.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewTabs())
	b.WriteString("\n\n")

	items := m.snap.Items
	if len(items) == 0 {
		switch {
		case m.loading():
			b.WriteString(m.styles.Placeholder.Render("Loading articles..."))
		case m.snap.Err == "" && !m.snap.HasMore:
			b.WriteString(m.styles.Placeholder.Render("No articles for this topic yet."))
		}
		b.WriteString("\n")
	}

	end := min(m.top+m.visibleItems(), len(items))
	for i := m.top; i < end; i++ {
		b.WriteString(m.viewItem(items[i], i == m.cursor))
	}

	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) viewTabs() string {
	parts := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		if i == m.active {
			parts[i] = m.styles.ActiveTab.Render(t.Name)
		} else {
			parts[i] = m.styles.Tab.Render(t.Name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) viewItem(n client.News, selected bool) string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := clip(n.Title, width-4)
	if selected {
		title = m.styles.Selected.Render("> " + title)
	} else {
		title = m.styles.Title.Render(title)
	}

	var meta []string
	if t, ok := n.Published(); ok {
		meta = append(meta, t.Format("Jan 2, 2006"))
	}
	if n.Description != "" {
		meta = append(meta, n.Description)
	}
	line := clip(strings.Join(meta, " · "), width-6)

	return title + "\n" + m.styles.Meta.Render(line) + "\n"
}

func (m Model) viewStatus() string {
	switch {
	case m.loading():
		return m.spinner.View() + " Loading..."
	case m.snap.Err != "":
		return m.styles.Error.Render("Error: " + m.snap.Err + " (press r to retry)")
	case m.actionErr != "":
		return m.styles.Error.Render(m.actionErr)
	case m.status != "":
		return m.styles.Status.Render(m.status)
	case !m.snap.HasMore && len(m.snap.Items) > 0:
		return m.styles.Placeholder.Render("You're all caught up.")
	}
	return ""
}

// clip shortens s to at most width runes.
func clip(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
