// Package journal records undo steps for in-memory state changes.
package journal

// Journal is a stack of undo functions. A nil *Journal is valid and records nothing.
type Journal struct {
	entries []func()
}

func New() *Journal {
	return &Journal{}
}

// Append records how to undo a change that was just applied
func (j *Journal) Append(undo func()) {
	if j == nil {
		return
	}

	j.entries = append(j.entries, undo)
}

// Snapshot returns a revision that RevertTo can unwind to
func (j *Journal) Snapshot() int {
	if j == nil {
		return 0
	}

	return len(j.entries)
}

// RevertTo undoes every change recorded after the given revision, newest first
func (j *Journal) RevertTo(rev int) {
	if j == nil {
		return
	}

	for i := len(j.entries) - 1; i >= rev; i-- {
		j.entries[i]()
	}

	j.entries = j.entries[:rev]
}

// Revert undoes everything recorded
func (j *Journal) Revert() {
	j.RevertTo(0)
}

// Discard forgets the recorded entries, making the changes permanent
func (j *Journal) Discard() {
	if j == nil {
		return
	}

	j.entries = nil
}

func (j *Journal) Len() int {
	if j == nil {
		return 0
	}

	return len(j.entries)
}
