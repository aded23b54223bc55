// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/taskvault/internal/storage"
	"github.com/nibzard/taskvault/internal/task"
)

// filter selects which tasks the list shows.
type filter int

const (
	filterAll filter = iota
	filterPending
	filterDone
)

// Run starts the TUI over the given store.
func Run(ctx context.Context, store *storage.Store) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	program := tea.NewProgram(newModel(ctx, store), tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(*model); ok && m.fatal != nil {
		return m.fatal
	}
	return nil
}

type model struct {
	ctx   context.Context
	store *storage.Store

	tasks   []task.Task
	visible []int // indexes into tasks after filtering
	cursor  int
	filter  filter
	loadErr error
	fatal   error

	tickInterval time.Duration
}

type tickMsg time.Time

func newModel(ctx context.Context, store *storage.Store) *model {
	return &model{
		ctx:          ctx,
		store:        store,
		tickInterval: time.Second,
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	m.refresh()
	return tickCmd(m.tickInterval)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "j", "down":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			return m, nil
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case " ", "enter":
			m.toggleSelected()
			return m, nil
		case "r", "f5":
			m.refresh()
			return m, nil
		case "0":
			m.filter = filterAll
			m.applyFilter()
			return m, nil
		case "1":
			m.filter = filterPending
			m.applyFilter()
			return m, nil
		case "2":
			m.filter = filterDone
			m.applyFilter()
			return m, nil
		}
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	}
	return m, nil
}

// refresh reloads the collection from disk.
func (m *model) refresh() {
	tasks, err := m.store.Load(m.ctx)
	if err != nil {
		m.loadErr = err
		return
	}
	m.loadErr = nil
	m.tasks = tasks
	m.applyFilter()
}

func (m *model) applyFilter() {
	m.visible = m.visible[:0]
	for i, t := range m.tasks {
		switch m.filter {
		case filterPending:
			if t.Done {
				continue
			}
		case filterDone:
			if !t.Done {
				continue
			}
		}
		m.visible = append(m.visible, i)
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// toggleSelected flips the done flag of the task under the cursor via a
// locked read-modify-write cycle.
func (m *model) toggleSelected() {
	if m.cursor >= len(m.visible) {
		return
	}
	id := m.tasks[m.visible[m.cursor]].ID
	err := m.store.Update(m.ctx, func(tasks []task.Task) ([]task.Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				if tasks[i].Done {
					tasks[i].MarkUndone()
				} else {
					tasks[i].MarkDone()
				}
				return tasks, nil
			}
		}
		return nil, fmt.Errorf("task %d not found", id)
	})
	if err != nil {
		m.loadErr = err
		return
	}
	m.refresh()
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Taskvault"))
	b.WriteString(fadedStyle.Render(fmt.Sprintf("  %s", m.store.Path())))
	b.WriteString("\n\n")

	if m.loadErr != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("error: %v", m.loadErr)))
		b.WriteString("\n\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(fadedStyle.Render("No tasks."))
		b.WriteString("\n")
	}

	for pos, idx := range m.visible {
		t := m.tasks[idx]
		cursor := "  "
		if pos == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		b.WriteString(cursor)
		b.WriteString(renderTask(t))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(fadedStyle.Render("j/k move · space toggle · 0 all · 1 pending · 2 done · r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func renderTask(t task.Task) string {
	mark := "[ ]"
	if t.Done {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s %4d %s", mark, t.ID, stripControl(t.Text))
	switch {
	case t.Done:
		return doneStyle.Render(line)
	case t.IsOverdue():
		return overdueStyle.Render(line + "  (overdue " + t.DueDate + ")")
	case t.DueDate != "":
		return line + fadedStyle.Render("  (due "+t.DueDate+")")
	default:
		return line
	}
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
