package forms

import "testing"

func TestIsPersistedID(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"", false},
		{"temp_1", false},
		{"temp_", false},
		{"9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", true},
		{"q1", true},
		{"TEMP_1", true}, // the marker is case sensitive
	}
	for _, c := range cases {
		if got := IsPersistedID(c.id); got != c.want {
			t.Errorf("IsPersistedID(%q) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestResolveIdentity(t *testing.T) {
	stored := idSet{}
	stored.add("s1")

	cases := []struct {
		name     string
		id       string
		wantID   string
		existing bool
	}{
		{"stored id", "s1", "s1", true},
		{"absent id", "", "", false},
		{"placeholder", "temp_s1", "", false},
		{"foreign id", "s2", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			id, ok := resolveIdentity(c.id, stored)
			if id != c.wantID || ok != c.existing {
				t.Errorf("resolveIdentity(%q) = (%q, %v), want (%q, %v)",
					c.id, id, ok, c.wantID, c.existing)
			}
		})
	}
}
