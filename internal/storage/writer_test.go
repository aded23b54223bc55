package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nibzard/taskvault/internal/task"
)

func mustTask(t *testing.T, id int64, text string) task.Task {
	t.Helper()
	tk, err := task.New(id, text)
	if err != nil {
		t.Fatalf("task.New(%d, %q) failed: %v", id, text, err)
	}
	return tk
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("orphaned temp file: %s", entry.Name())
		}
	}
}

func TestWriteFileKeepsSingleBackupGeneration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	first := mustTask(t, 1, "a")
	if err := writeFile([]task.Task{first}, path, true); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
		t.Fatal("backup exists before there was a previous generation")
	}

	second := mustTask(t, 2, "b")
	if err := writeFile([]task.Task{first, second}, path, true); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	bak, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	bakTasks, err := decodeCollection(bak)
	if err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if len(bakTasks) != 1 || bakTasks[0].ID != 1 || bakTasks[0].Text != "a" {
		t.Errorf("backup holds %v, want exactly the first generation", bakTasks)
	}

	main, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read main file: %v", err)
	}
	mainTasks, err := decodeCollection(main)
	if err != nil {
		t.Fatalf("decode main file: %v", err)
	}
	if len(mainTasks) != 2 {
		t.Errorf("main file holds %d tasks, want 2", len(mainTasks))
	}

	assertNoTempFiles(t, dir)
}

func TestWriteFileBackupOptOut(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	if err := writeFile([]task.Task{mustTask(t, 1, "a")}, path, false); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := writeFile([]task.Task{mustTask(t, 1, "a"), mustTask(t, 2, "b")}, path, false); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
		t.Fatal("backup written despite opt-out")
	}
}

func TestWriteFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	if err := writeFile([]task.Task{mustTask(t, 1, "a")}, path, true); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := fi.Mode().Perm(); got != 0o600 {
		t.Errorf("file mode = %o, want 600", got)
	}
}

func TestWriteFileEmptyCollection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	if err := writeFile(nil, path, true); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "[]" {
		t.Errorf("empty collection serialized as %q, want []", got)
	}
}

func TestWriteFileRejectsFileAsParentDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	path := filepath.Join(blocker, "tasks.json")
	if err := writeFile([]task.Task{mustTask(t, 1, "a")}, path, true); err == nil {
		t.Fatal("save through a file-as-directory path succeeded")
	}
	assertNoTempFiles(t, dir)
}

func TestWriteFileCleansTempOnUnwritableDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permissions are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root, directory permissions are not enforced")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	defer os.Chmod(dir, 0o700)

	path := filepath.Join(dir, "tasks.json")
	if err := writeFile([]task.Task{mustTask(t, 1, "a")}, path, true); err == nil {
		t.Fatal("save into unwritable directory succeeded")
	}
	os.Chmod(dir, 0o700)
	assertNoTempFiles(t, dir)
}

func TestWriteFileBackupFailureLeavesMainFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	if err := writeFile([]task.Task{mustTask(t, 1, "a")}, path, true); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// A directory at the backup path makes rotation fail after the temp
	// file is already written and fsynced.
	if err := os.Mkdir(path+BackupSuffix, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err := writeFile([]task.Task{mustTask(t, 1, "a"), mustTask(t, 2, "b")}, path, true)
	if err == nil {
		t.Fatal("save succeeded despite an unwritable backup path")
	}

	main, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read main file: %v", err)
	}
	tasks, err := decodeCollection(main)
	if err != nil {
		t.Fatalf("decode main file: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 1 || tasks[0].Text != "a" {
		t.Errorf("failed save altered the main file: %v", tasks)
	}
	assertNoTempFiles(t, dir)
}

func TestWriteFileRenameFailureCleansTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	// A directory at the target path makes the final rename fail after
	// the temp file is written.
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := writeFile([]task.Task{mustTask(t, 1, "a")}, path, false); err == nil {
		t.Fatal("save over a directory succeeded")
	}

	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		t.Errorf("target path disturbed by the failed save: %v, %v", fi, err)
	}
	assertNoTempFiles(t, dir)
}

func TestWriteFileCreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "tasks.json")

	if err := writeFile([]task.Task{mustTask(t, 1, "a")}, path, true); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("target missing after save: %v", err)
	}
}
