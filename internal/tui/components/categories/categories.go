package categories

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/studylit/internal/models"
)

type StartTimerMsg struct {
	ID       string
	Pomodoro bool
}

type LogSessionMsg struct {
	ID string
}

type DeleteCategoryMsg struct {
	ID string
}

type Item struct {
	Category models.Category
	// Timing is set on the category the timer is running for.
	Timing bool
}

func (i Item) Title() string {
	name := i.Category.Name
	if i.Category.Emoji != "" {
		name = i.Category.Emoji + " " + name
	}
	if i.Timing {
		name = "● " + name
	}
	return name
}

func (i Item) Description() string {
	c := i.Category
	desc := fmt.Sprintf("%.1fh today | %.1fh this month | %.1fh total", c.TodayStudied, c.MonthStudied, c.TotalStudied)
	if c.DailyTarget > 0 {
		desc += fmt.Sprintf(" | %.0f%% of daily target", c.TodayStudied/c.DailyTarget*100)
	}
	if c.CanWithdraw {
		desc += " | withdrawable"
	}
	return desc
}

func (i Item) FilterValue() string { return i.Category.Name }

type KeyMap struct {
	Start    key.Binding
	Pomodoro key.Binding
	Log      key.Binding
	Delete   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start timer"),
		),
		Pomodoro: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "start pomodoro"),
		),
		Log: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "log past session"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func items(cats []models.Category, timing string) []list.Item {
	out := make([]list.Item, len(cats))
	for i, c := range cats {
		out[i] = Item{Category: c, Timing: c.ID == timing}
	}
	return out
}

func New(cats []models.Category, width, height int) Model {
	l := list.New(items(cats, ""), list.NewDefaultDelegate(), width, height)
	l.Title = "Categories"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Start, keys.Pomodoro, keys.Log, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Start, keys.Pomodoro, keys.Log, keys.Delete}
	}

	return Model{list: l, keys: keys}
}

// SetCategories replaces the list, marking the category being timed.
func (m *Model) SetCategories(cats []models.Category, timing string) {
	m.list.SetItems(items(cats, timing))
}

func (m Model) Selected() (models.Category, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return models.Category{}, false
	}
	return i.Category, true
}

// Filtering reports whether the list is capturing keystrokes for its filter.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		c, ok := m.Selected()
		switch {
		case key.Matches(msg, m.keys.Start):
			if ok {
				return m, func() tea.Msg { return StartTimerMsg{ID: c.ID} }
			}
		case key.Matches(msg, m.keys.Pomodoro):
			if ok {
				return m, func() tea.Msg { return StartTimerMsg{ID: c.ID, Pomodoro: true} }
			}
		case key.Matches(msg, m.keys.Log):
			if ok {
				return m, func() tea.Msg { return LogSessionMsg{ID: c.ID} }
			}
		case key.Matches(msg, m.keys.Delete):
			if ok {
				return m, func() tea.Msg { return DeleteCategoryMsg{ID: c.ID} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No categories yet.\n  Add one with 'studylit category add <name>'."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
