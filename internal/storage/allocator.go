package storage

import "github.com/nibzard/taskvault/internal/task"

// NextID returns the smallest positive integer not used as an id in
// tasks. Ids that are zero or negative are ignored, so the result is
// always positive even over corrupt input, and repeated calls without
// intervening inserts return the same value. An empty collection yields
// 1. This is deliberately not max+1: that wastes id space on gaps and
// goes non-positive when every stored id is.
func NextID(tasks []task.Task) int64 {
	used := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ID > 0 {
			used[t.ID] = struct{}{}
		}
	}
	for id := int64(1); ; id++ {
		if _, ok := used[id]; !ok {
			return id
		}
	}
}
