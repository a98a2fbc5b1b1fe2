package reference

import "sync"

// ID is a compact integer handle for a Reference. Large graphs (for
// example, a landscape over tens of millions of entities) are built over
// IDs rather than Reference values or CURIE strings; CURIEs are
// materialized only on output.
type ID uint64

// Table interns References into IDs and back, so the graph core,
// prioritizer, and landscape analyzer can hold []ID slices and
// integer-keyed maps instead of Reference-keyed ones.
type Table struct {
	mu    sync.RWMutex
	byRef map[Reference]ID
	byID  []Reference
}

// NewTable creates an empty reference table.
func NewTable() *Table {
	return &Table{byRef: make(map[Reference]ID, 1024)}
}

// Intern returns the ID for r, allocating a new one if r has not been seen.
func (t *Table) Intern(r Reference) ID {
	t.mu.RLock()
	if id, ok := t.byRef[r]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byRef[r]; ok {
		return id
	}
	id := ID(len(t.byID))
	t.byID = append(t.byID, r)
	t.byRef[r] = id
	return id
}

// Lookup returns the ID already assigned to r, if any.
func (t *Table) Lookup(r Reference) (ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byRef[r]
	return id, ok
}

// Reference returns the Reference behind id. Panics if id was never
// allocated by this table — a programming error, not a runtime condition.
func (t *Table) Reference(id ID) Reference {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byID[id]
}

// Len returns the number of distinct references interned.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
