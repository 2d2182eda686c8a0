package recommend

import "github.com/bookscout/bookscout/internal/catalog"

// seenSet tracks identifiers already used as seeds or recommendations.
type seenSet map[string]struct{}

func newSeenSet(records []catalog.Record) seenSet {
	s := make(seenSet, len(records))
	for _, rec := range records {
		s[rec.ISBN()] = struct{}{}
	}
	return s
}

// add records isbn and reports whether it was new.
func (s seenSet) add(isbn string) bool {
	if _, ok := s[isbn]; ok {
		return false
	}
	s[isbn] = struct{}{}
	return true
}

// appendUnseen appends resolved candidates whose identifier is new.
func appendUnseen(list, candidates []catalog.Record, seen seenSet) []catalog.Record {
	for _, rec := range candidates {
		if !rec.Resolved() {
			continue
		}
		if seen.add(rec.ISBN()) {
			list = append(list, rec)
		}
	}
	return list
}
