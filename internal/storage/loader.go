package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nibzard/taskvault/internal/task"
)

const (
	// MaxFileSize bounds how large a database file may grow before the
	// loader refuses to parse it.
	MaxFileSize = 10 << 20 // 10 MiB

	// maxJSONDepth bounds nesting so a small but pathological file
	// cannot trigger deep recursive parsing.
	maxJSONDepth = 32
)

// readFile loads and validates the collection at path. The second
// return value reports that the file is absent, which callers treat the
// same as an empty collection. A file deleted between the stat and the
// read counts as absent, not as an error.
func readFile(path string) ([]task.Task, bool, error) {
	// One Lstat answers existence, symlink-ness, and size.
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, false, &SymlinkError{Path: path}
	}
	if fi.Size() > MaxFileSize {
		return nil, false, &SizeLimitError{
			Path:   path,
			Reason: fmt.Sprintf("file is %d bytes, maximum is %d", fi.Size(), MaxFileSize),
		}
	}

	var data []byte
	err = withRetry(func() error {
		var rerr error
		data, rerr = os.ReadFile(path)
		return rerr
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	tasks, err := decodeCollection(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, false, nil
}

// decodeCollection parses and validates the raw database contents.
// Validation is all-or-nothing: the first invalid element aborts the
// load with its index and field, and a duplicate id found in the second
// pass aborts it naming the value.
func decodeCollection(data []byte) ([]task.Task, error) {
	if err := checkDepth(data); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ValidationError{
			Index: -1,
			Err:   fmt.Errorf("top-level value must be an array, got %s", task.JSONTypeName(trimmed)),
		}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, &ValidationError{Index: -1, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	tasks := make([]task.Task, 0, len(elems))
	for i, raw := range elems {
		t, err := task.Decode(raw)
		if err != nil {
			var fe *task.FieldError
			if errors.As(err, &fe) {
				return nil, &ValidationError{Index: i, Field: fe.Field, Err: fe.Err}
			}
			return nil, &ValidationError{Index: i, Err: err}
		}
		tasks = append(tasks, t)
	}

	seen := make(map[int64]int, len(tasks))
	for i, t := range tasks {
		if first, dup := seen[t.ID]; dup {
			return nil, &ValidationError{
				Index: i,
				Field: "id",
				Err:   fmt.Errorf("duplicate id %d, first used by record %d", t.ID, first),
			}
		}
		seen[t.ID] = i
	}
	return tasks, nil
}

// checkDepth walks the token stream and rejects nesting beyond
// maxJSONDepth before any value is materialized.
func checkDepth(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ValidationError{Index: -1, Err: fmt.Errorf("invalid JSON: %w", err)}
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
				if depth > maxJSONDepth {
					return &SizeLimitError{
						Reason: fmt.Sprintf("JSON nested deeper than %d levels", maxJSONDepth),
					}
				}
			case '}', ']':
				depth--
			}
		}
	}
}
