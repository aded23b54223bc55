package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nibzard/taskvault/internal/storage"
	"github.com/nibzard/taskvault/internal/task"
)

// testEnv gives each test its own database path and keeps host
// configuration out of the run.
func testEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TASKVAULT_DB", "")
	chdir(t, t.TempDir())
	return filepath.Join(t.TempDir(), "tasks.json")
}

// chdir mirrors t.Chdir (Go 1.24) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func run(t *testing.T, db string, args ...string) error {
	t.Helper()
	return Run(context.Background(), append([]string{"-db", db}, args...))
}

func loadDB(t *testing.T, db string) []task.Task {
	t.Helper()
	store, err := storage.New(db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	tasks, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return tasks
}

func TestRunAddAndList(t *testing.T) {
	db := testEnv(t)

	if err := run(t, db, "add", "first task"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := run(t, db, "add", "second task"); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	tasks := loadDB(t, db)
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].ID != 1 || tasks[0].Text != "first task" {
		t.Errorf("first task = %v", tasks[0])
	}
	if tasks[1].ID != 2 {
		t.Errorf("second task id = %d, want 2", tasks[1].ID)
	}

	if err := run(t, db, "list"); err != nil {
		t.Errorf("list failed: %v", err)
	}
}

func TestRunAddWithOptions(t *testing.T) {
	db := testEnv(t)

	if err := run(t, db, "add", "-due", "2030-01-02", "-priority", "2", "urgent"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	tasks := loadDB(t, db)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].DueDate != "2030-01-02" || tasks[0].Priority != 2 {
		t.Errorf("task = %v, want due 2030-01-02 priority 2", tasks[0])
	}

	if err := run(t, db, "add", "-due", "not-a-date", "bad"); err == nil {
		t.Error("add accepted an invalid due date")
	}
}

func TestRunDoneUndone(t *testing.T) {
	db := testEnv(t)
	if err := run(t, db, "add", "toggle me"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := run(t, db, "done", "1"); err != nil {
		t.Fatalf("done failed: %v", err)
	}
	if tasks := loadDB(t, db); !tasks[0].Done {
		t.Error("done did not mark the task")
	}

	if err := run(t, db, "undone", "1"); err != nil {
		t.Fatalf("undone failed: %v", err)
	}
	if tasks := loadDB(t, db); tasks[0].Done {
		t.Error("undone did not clear the task")
	}

	if err := run(t, db, "done", "99"); err == nil {
		t.Error("done on a missing id succeeded")
	}
}

func TestRunEditAndDue(t *testing.T) {
	db := testEnv(t)
	if err := run(t, db, "add", "old text"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := run(t, db, "edit", "1", "new text"); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if tasks := loadDB(t, db); tasks[0].Text != "new text" {
		t.Errorf("text = %q after edit", tasks[0].Text)
	}

	if err := run(t, db, "due", "1", "2031-12-31"); err != nil {
		t.Fatalf("due failed: %v", err)
	}
	if tasks := loadDB(t, db); tasks[0].DueDate != "2031-12-31" {
		t.Errorf("due date = %q", tasks[0].DueDate)
	}

	if err := run(t, db, "due", "1", "31-12-2031"); err == nil {
		t.Error("due accepted a malformed date")
	}
	if err := run(t, db, "edit", "1", "   "); err == nil {
		t.Error("edit accepted blank text")
	}
}

func TestRunRm(t *testing.T) {
	db := testEnv(t)
	if err := run(t, db, "add", "a"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := run(t, db, "add", "b"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := run(t, db, "rm", "1"); err != nil {
		t.Fatalf("rm failed: %v", err)
	}
	tasks := loadDB(t, db)
	if len(tasks) != 1 || tasks[0].ID != 2 {
		t.Errorf("after rm tasks = %v, want only id 2", tasks)
	}

	// Id 1 is free again and gets reused.
	if err := run(t, db, "add", "c"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	tasks = loadDB(t, db)
	if len(tasks) != 2 || tasks[1].ID != 1 {
		t.Errorf("freed id not reused: %v", tasks)
	}

	if err := run(t, db, "rm", "99"); err == nil {
		t.Error("rm on a missing id succeeded")
	}
	if err := run(t, db, "rm", "zero"); err == nil {
		t.Error("rm accepted a non-numeric id")
	}
}

func TestRunDoctor(t *testing.T) {
	db := testEnv(t)
	if err := run(t, db, "doctor"); err != nil {
		t.Errorf("doctor on a missing database failed: %v", err)
	}

	if err := run(t, db, "add", "healthy"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := run(t, db, "doctor"); err != nil {
		t.Errorf("doctor on a healthy database failed: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	db := testEnv(t)
	err := run(t, db, "frobnicate")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("Run = %v, want unknown command error", err)
	}
}

func TestRunParseIDErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"too many", []string{"1", "2"}},
		{"non-numeric", []string{"abc"}},
		{"zero", []string{"0"}},
		{"negative", []string{"-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseID(tt.args); err == nil {
				t.Errorf("parseID(%v) succeeded", tt.args)
			}
		})
	}
}
