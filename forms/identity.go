package forms

import "strings"

// TempIDPrefix marks a payload-local placeholder id for an entity that
// has not been persisted yet. Builder UIs mint these client-side.
const TempIDPrefix = "temp_"

// IsPersistedID reports whether id denotes an already persisted row, as
// opposed to an absent, empty or placeholder identifier.
func IsPersistedID(id string) bool {
	return id != "" && !strings.HasPrefix(id, TempIDPrefix)
}

type idSet map[string]struct{}

func (s idSet) add(id string) { s[id] = struct{}{} }

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// resolveIdentity classifies an incoming node: it returns (id, true) when
// the node carries a real identifier stored under the targeted form, and
// ("", false) otherwise. Placeholder ids and ids belonging to other forms
// both classify as new, so a foreign id is never updated in place.
func resolveIdentity(id string, stored idSet) (string, bool) {
	if !IsPersistedID(id) || !stored.has(id) {
		return "", false
	}
	return id, true
}
