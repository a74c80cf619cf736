package model

// LinkDiff is the change in the link set of one source between two extractions.
type LinkDiff struct {
	// Added are links present in the newer extraction only.
	Added []string `json:"added"`

	// Removed are links present in the older extraction only.
	Removed []string `json:"removed"`

	// Unchanged are links present in both.
	Unchanged []string `json:"unchanged"`
}

// Diff compares two link sequences. Added and Unchanged keep the order of
// newer, Removed keeps the order of older.
func Diff(older, newer []string) LinkDiff {
	inOlder := make(map[string]struct{}, len(older))
	for _, l := range older {
		inOlder[l] = struct{}{}
	}
	inNewer := make(map[string]struct{}, len(newer))
	for _, l := range newer {
		inNewer[l] = struct{}{}
	}

	d := LinkDiff{
		Added:     make([]string, 0),
		Removed:   make([]string, 0),
		Unchanged: make([]string, 0),
	}
	for _, l := range newer {
		if _, ok := inOlder[l]; ok {
			d.Unchanged = append(d.Unchanged, l)
		} else {
			d.Added = append(d.Added, l)
		}
	}
	for _, l := range older {
		if _, ok := inNewer[l]; !ok {
			d.Removed = append(d.Removed, l)
		}
	}
	return d
}

// HasChanges reports whether any link was added or removed.
func (d LinkDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}
