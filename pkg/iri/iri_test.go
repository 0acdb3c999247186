package iri

import (
	"errors"
	"testing"
)

func TestExpand(t *testing.T) {
	prefixes := map[string]string{
		"1cat": "https://vocab.example.org/categories/",
	}

	tests := []struct {
		name     string
		token    string
		base     string
		prefixes map[string]string
		want     string
	}{
		{
			name:  "absolute https passes through",
			token: "https://auth.example.org/users/42",
			base:  "https://reg.example.org/",
			want:  "https://auth.example.org/users/42",
		},
		{
			name:  "urn passes through",
			token: "urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			want:  "urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		},
		{
			name:  "declared prefix expands even when scheme-shaped",
			token: "cat:pv",
			base:  "https://reg.example.org/",
			prefixes: map[string]string{
				"cat": "https://vocab.example.org/categories/",
			},
			want: "https://vocab.example.org/categories/pv",
		},
		{
			name:  "undeclared scheme-shaped token passes through",
			token: "cat:pv",
			base:  "https://reg.example.org/",
			want:  "cat:pv",
		},
		{
			name:     "non-scheme prefix expands against prefix map",
			token:    "1cat:pv",
			prefixes: prefixes,
			want:     "https://vocab.example.org/categories/pv",
		},
		{
			name:  "relative resolves against base",
			token: "participants/alice",
			base:  "https://reg.example.org/api",
			want:  "https://reg.example.org/api/participants/alice",
		},
		{
			name:  "leading slash is trimmed before base join",
			token: "/participants/alice",
			base:  "https://reg.example.org/api/",
			want:  "https://reg.example.org/api/participants/alice",
		},
		{
			name:  "bare token without base returned as-is",
			token: "alice",
			want:  "alice",
		},
		{
			name:  "whitespace is trimmed",
			token: "  https://reg.example.org/x ",
			want:  "https://reg.example.org/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.token, tt.base, tt.prefixes)
			if err != nil {
				t.Fatalf("Expand(%q) error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Fatalf("Expand(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestExpandEmpty(t *testing.T) {
	for _, token := range []string{"", "   "} {
		if _, err := Expand(token, "https://reg.example.org/", nil); !errors.Is(err, ErrEmpty) {
			t.Fatalf("Expand(%q) error = %v, want ErrEmpty", token, err)
		}
	}
}

func TestExpandDeterministic(t *testing.T) {
	a, _ := Expand("sites/hall", "https://reg.example.org/api", nil)
	b, _ := Expand("sites/hall", "https://reg.example.org/api", nil)
	if a != b {
		t.Fatalf("expansion not deterministic: %q vs %q", a, b)
	}
}

func TestIdentifierTemplates(t *testing.T) {
	base := "https://reg.example.org/api"

	if got, want := CommunityIRI(base, "sunvalley"), "https://reg.example.org/api/communities/sunvalley"; got != want {
		t.Fatalf("CommunityIRI = %q, want %q", got, want)
	}
	if got, want := EntityIRI(base, "sunvalley", "meters", "m1"), "https://reg.example.org/api/communities/sunvalley/meters/m1"; got != want {
		t.Fatalf("EntityIRI = %q, want %q", got, want)
	}
	if got, want := ContextIRI(base, ""), "https://reg.example.org/api/contexts/rec/v1"; got != want {
		t.Fatalf("ContextIRI default = %q, want %q", got, want)
	}
	if got, want := ContextIRI(base+"/", "v2"), "https://reg.example.org/api/contexts/rec/v2"; got != want {
		t.Fatalf("ContextIRI = %q, want %q", got, want)
	}
}
