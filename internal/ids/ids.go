// Package ids allocates identifiers for entities created in the local backend.
//
// Local ids are small decimal strings: the next id is the largest numeric id
// already present plus one. Projects count from 1 and tasks from 101, a fixed
// offset that keeps the two id spaces visually distinct.
package ids

import "strconv"

const (
	// FirstProjectID is the id given to the first project in an empty store.
	FirstProjectID = 1

	// FirstTaskID is the id given to the first task in an empty store.
	FirstTaskID = 101
)

// Next returns the next identifier for a collection whose existing ids are
// given. Non-numeric ids are ignored. When no numeric id exists, first is used.
func Next(existing []string, first int) string {
	max := 0
	seen := false
	for _, id := range existing {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		if !seen || n > max {
			max = n
			seen = true
		}
	}
	if !seen {
		return strconv.Itoa(first)
	}
	return strconv.Itoa(max + 1)
}
