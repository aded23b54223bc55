// Package task defines the stored task record and its validation rules.
package task

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLen is the maximum task text length in code points.
const MaxTextLen = 1000

// Priority bounds. Zero means unset.
const (
	MinPriority = 1
	MaxPriority = 5
)

// dueDateLayout is the accepted due-date format (ISO 8601 date).
const dueDateLayout = "2006-01-02"

// Task is a single stored task record. ID is assigned once and never
// changes. Text may contain control characters; sanitizing them is a
// display concern.
type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
	Priority  int    `json:"priority,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// New creates a task with the given id and text, stamping creation and
// update times.
func New(id int64, text string) (Task, error) {
	if id <= 0 {
		return Task{}, fmt.Errorf("task id must be positive, got %d", id)
	}
	if err := CheckText(text); err != nil {
		return Task{}, err
	}
	now := nowISO()
	return Task{
		ID:        id,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CheckText validates task text: non-empty after trimming surrounding
// whitespace and within the length bound.
func CheckText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("task text must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLen {
		return fmt.Errorf("task text is %d characters, maximum is %d", n, MaxTextLen)
	}
	return nil
}

// MarkDone marks the task completed and bumps the update time.
func (t *Task) MarkDone() {
	t.Done = true
	t.UpdatedAt = nowISO()
}

// MarkUndone marks the task not completed and bumps the update time.
func (t *Task) MarkUndone() {
	t.Done = false
	t.UpdatedAt = nowISO()
}

// Rename replaces the task text and bumps the update time.
func (t *Task) Rename(text string) error {
	text = strings.TrimSpace(text)
	if err := CheckText(text); err != nil {
		return err
	}
	t.Text = text
	t.UpdatedAt = nowISO()
	return nil
}

// SetDueDate sets the due date, which must be an ISO 8601 date
// (YYYY-MM-DD), and bumps the update time.
func (t *Task) SetDueDate(date string) error {
	if err := checkDueDate(date); err != nil {
		return err
	}
	t.DueDate = date
	t.UpdatedAt = nowISO()
	return nil
}

// SetPriority sets the task priority (1 highest, 5 lowest, 0 unset)
// and bumps the update time.
func (t *Task) SetPriority(p int) error {
	if err := checkPriority(p); err != nil {
		return err
	}
	t.Priority = p
	t.UpdatedAt = nowISO()
	return nil
}

// IsOverdue reports whether the task has a due date in the past and is
// not done. Unparseable due dates count as not overdue.
func (t *Task) IsOverdue() bool {
	if t.DueDate == "" || t.Done {
		return false
	}
	due, err := time.Parse(dueDateLayout, t.DueDate)
	if err != nil {
		return false
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return due.Before(today)
}

// String returns a compact debug representation, truncating long text.
func (t Task) String() string {
	text := t.Text
	if utf8.RuneCountInString(text) > 50 {
		runes := []rune(text)
		text = string(runes[:47]) + "..."
	}
	return fmt.Sprintf("Task(id=%d, text=%q, done=%t)", t.ID, text, t.Done)
}

func checkDueDate(date string) error {
	if _, err := time.Parse(dueDateLayout, date); err != nil {
		return fmt.Errorf("invalid due date %q, expected YYYY-MM-DD", date)
	}
	return nil
}

func checkPriority(p int) error {
	if p != 0 && (p < MinPriority || p > MaxPriority) {
		return fmt.Errorf("priority must be between %d and %d, got %d", MinPriority, MaxPriority, p)
	}
	return nil
}

func checkTimestamp(field, value string) error {
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return fmt.Errorf("invalid %s timestamp %q, expected RFC 3339", field, value)
	}
	return nil
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
