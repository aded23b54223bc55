package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskvault/internal/config"
	"github.com/nibzard/taskvault/internal/task"
	"github.com/nibzard/taskvault/internal/ui"
)

// addCommand creates a new task with the next free id.
func addCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("taskvault add", flag.ContinueOnError)
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	priority := fs.Int("priority", 0, "Priority (1 highest .. 5 lowest)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: taskvault add [options] <text>")
	}
	text := fs.Arg(0)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	var added task.Task
	err = store.Update(ctx, func(tasks []task.Task) ([]task.Task, error) {
		t, err := task.New(store.NextID(tasks), text)
		if err != nil {
			return nil, err
		}
		if *due != "" {
			if err := t.SetDueDate(*due); err != nil {
				return nil, err
			}
		}
		if *priority != 0 {
			if err := t.SetPriority(*priority); err != nil {
				return nil, err
			}
		}
		added = t
		return append(tasks, t), nil
	})
	if err != nil {
		return err
	}
	logger.Info("added task", "id", added.ID)
	return nil
}

// listCommand prints tasks, optionally filtered.
func listCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskvault list", flag.ContinueOnError)
	showDone := fs.Bool("done", false, "Show only completed tasks")
	showPending := fs.Bool("pending", false, "Show only pending tasks")
	showOverdue := fs.Bool("overdue", false, "Show only overdue tasks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	tasks, err := store.Load(ctx)
	if err != nil {
		return err
	}

	shown := 0
	for _, t := range tasks {
		if *showDone && !t.Done {
			continue
		}
		if *showPending && t.Done {
			continue
		}
		if *showOverdue && !t.IsOverdue() {
			continue
		}
		printTask(t)
		shown++
	}
	if shown == 0 {
		fmt.Println("No tasks.")
	}
	return nil
}

func printTask(t task.Task) {
	mark := " "
	if t.Done {
		mark = "x"
	}
	line := fmt.Sprintf("%4d [%s] %s", t.ID, mark, sanitizeForDisplay(t.Text))
	if t.Priority != 0 {
		line += fmt.Sprintf(" (p%d)", t.Priority)
	}
	if t.DueDate != "" {
		line += fmt.Sprintf(" (due %s)", t.DueDate)
		if t.IsOverdue() {
			line += " OVERDUE"
		}
	}
	fmt.Println(line)
}

// doneCommand marks a task completed.
func doneCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	return mutateTask(ctx, cfg, logger, args, "done", func(t *task.Task) error {
		t.MarkDone()
		return nil
	})
}

// undoneCommand marks a task not completed.
func undoneCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	return mutateTask(ctx, cfg, logger, args, "undone", func(t *task.Task) error {
		t.MarkUndone()
		return nil
	})
}

// editCommand replaces a task's text.
func editCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: taskvault edit <id> <text>")
	}
	text := args[1]
	return mutateTask(ctx, cfg, logger, args[:1], "edited", func(t *task.Task) error {
		return t.Rename(text)
	})
}

// dueCommand sets a task's due date.
func dueCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: taskvault due <id> <date>")
	}
	date := args[1]
	return mutateTask(ctx, cfg, logger, args[:1], "due date set", func(t *task.Task) error {
		return t.SetDueDate(date)
	})
}

// rmCommand deletes a task.
func rmCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	err = store.Update(ctx, func(tasks []task.Task) ([]task.Task, error) {
		out := make([]task.Task, 0, len(tasks))
		found := false
		for _, t := range tasks {
			if t.ID == id {
				found = true
				continue
			}
			out = append(out, t)
		}
		if !found {
			return nil, fmt.Errorf("task %d not found", id)
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	logger.Info("removed task", "id", id)
	return nil
}

// mutateTask applies fn to one task by id inside a locked
// read-modify-write cycle.
func mutateTask(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string, verb string, fn func(*task.Task) error) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	err = store.Update(ctx, func(tasks []task.Task) ([]task.Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				if err := fn(&tasks[i]); err != nil {
					return nil, err
				}
				return tasks, nil
			}
		}
		return nil, fmt.Errorf("task %d not found", id)
	})
	if err != nil {
		return err
	}
	logger.Info(verb, "id", id)
	return nil
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one task id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", args[0])
	}
	return id, nil
}

// doctorCommand checks the database file against the embedded JSON
// Schema and the strict loader.
func doctorCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	path := cfg.DBFile
	if len(args) == 1 {
		path = args[0]
	}

	fmt.Printf("Database: %s\n", path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  no database file yet, nothing to check")
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	result, err := task.ValidateSchema(data)
	if err != nil {
		return err
	}
	if result.Valid {
		fmt.Println("  schema: OK")
	} else {
		fmt.Println("  schema: FAILED")
		for _, e := range result.Errors {
			fmt.Printf("    %v\n", e)
		}
	}

	cfg.DBFile = path
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	tasks, err := store.Load(ctx)
	if err != nil {
		fmt.Printf("  loader: FAILED: %v\n", err)
		return fmt.Errorf("database is invalid")
	}
	fmt.Printf("  loader: OK (%d tasks)\n", len(tasks))
	if !result.Valid {
		return fmt.Errorf("database does not match schema")
	}
	return nil
}

// tuiCommand launches the terminal UI.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	return ui.Run(ctx, store)
}
