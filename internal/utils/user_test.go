package utils

import "testing"

func TestInitials(t *testing.T) {
	cases := []struct {
		first, last string
		others      []string
		want        string
	}{
		{"ada", "lovelace", nil, "AL"},
		{"Ada", "", nil, "A"},
		{"", "Lovelace", nil, "L"},
		{"", "", []string{"jdoe"}, "J"},
		{"", "", []string{"", "mail@example.com"}, "M"},
		{"  ", "", []string{"@@@"}, PlaceholderInitial},
		{"", "", nil, PlaceholderInitial},
		{"élodie", "ørsted", nil, "ÉØ"},
	}
	for _, c := range cases {
		if got := Initials(c.first, c.last, c.others...); got != c.want {
			t.Errorf("Initials(%q, %q, %v) = %q, want %q", c.first, c.last, c.others, got, c.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("Ada", "Lovelace", "ada"); got != "Ada Lovelace" {
		t.Errorf("got %q", got)
	}
	if got := DisplayName("", "", "ada"); got != "ada" {
		t.Errorf("got %q", got)
	}
	if got := DisplayName(" ", "", ""); got != AnonymousName {
		t.Errorf("got %q", got)
	}
}
