package timeline

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/schedule"
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	blockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	statusStyles = map[models.BlockStatus]lipgloss.Style{
		models.StatusUpcoming:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		models.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		models.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusSkipped:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true),
	}
)

type keyMap struct {
	Up   key.Binding
	Down key.Binding
}

var keys = keyMap{
	Up:   key.NewBinding(key.WithKeys("up", "k")),
	Down: key.NewBinding(key.WithKeys("down", "j")),
}

// Model shows one day's blocks in time order with a movable cursor.
type Model struct {
	viewport viewport.Model
	Schedule *models.DailySchedule
	blocks   []models.ScheduleBlock
	now      int
	cursor   int
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			m.Render()
			return m, nil
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.blocks)-1 {
				m.cursor++
			}
			m.Render()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Schedule == nil {
		return "No schedule loaded."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

// SetSchedule replaces the day shown. The cursor keeps pointing at the
// same block id when it still exists.
func (m *Model) SetSchedule(d models.DailySchedule, now int) {
	selected, hadSelection := m.Selected()
	m.Schedule = &d
	m.blocks = schedule.Sorted(d.Blocks)
	m.now = now
	m.cursor = 0
	if hadSelection {
		for i, b := range m.blocks {
			if b.ID == selected.ID {
				m.cursor = i
				break
			}
		}
	} else if cur, ok := schedule.CurrentBlock(m.blocks, now); ok {
		for i, b := range m.blocks {
			if b.ID == cur.ID {
				m.cursor = i
				break
			}
		}
	}
	m.Render()
}

func (m Model) Selected() (models.ScheduleBlock, bool) {
	if m.cursor < 0 || m.cursor >= len(m.blocks) {
		return models.ScheduleBlock{}, false
	}
	return m.blocks[m.cursor], true
}

func (m *Model) Render() {
	if m.Schedule == nil {
		m.viewport.SetContent("No schedule loaded.")
		return
	}
	if len(m.blocks) == 0 {
		m.viewport.SetContent("No blocks scheduled. Press 'a' to add one.")
		return
	}

	current, hasCurrent := schedule.CurrentBlock(m.blocks, m.now)
	var b strings.Builder
	for i, blk := range m.blocks {
		marker := "  "
		if hasCurrent && blk.ID == current.ID {
			marker = "▶ "
		}
		name := blk.CategoryName
		if i == m.cursor {
			name = cursorStyle.Render("> " + name)
		} else {
			name = blockStyle.Render("  " + name)
		}
		st, ok := statusStyles[blk.Status]
		if !ok {
			st = statusStyles[models.StatusUpcoming]
		}
		status := string(blk.Status)
		if blk.Pomodoros > 0 {
			status += fmt.Sprintf(" · %d🍅", blk.Pomodoros)
		}
		line := fmt.Sprintf("%s%s %s %s",
			marker,
			timeStyle.Render(schedule.FormatRange(blk)),
			name,
			st.Render(status),
		)
		if blk.Description != "" {
			line += " " + descStyle.Render(blk.Description)
		}
		b.WriteString(line + "\n")
	}
	m.viewport.SetContent(b.String())

	if m.viewport.Height > 0 {
		if m.cursor < m.viewport.YOffset {
			m.viewport.SetYOffset(m.cursor)
		} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
			m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
		}
	}
}
