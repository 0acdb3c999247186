package iri

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrEmpty is returned when an identifier token is empty after trimming.
var ErrEmpty = errors.New("empty identifier")

// absScheme matches tokens that already carry a URI scheme per RFC 3986.
var absScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// Expand turns a raw identifier token into an absolute identifier.
//
// Rules, in order:
//  1. prefixed tokens ("ex:foo") whose prefix is declared are expanded
//     against the prefix map, even when the prefix looks like a scheme
//  2. tokens with an absolute scheme prefix are returned unchanged
//  3. relative tokens are resolved against base (slash-normalized)
//  4. anything else is returned as-is, with no absoluteness guarantee
//
// The expansion is pure: identical inputs always yield identical output.
func Expand(token string, base string, prefixes map[string]string) (string, error) {
	v := strings.TrimSpace(token)
	if v == "" {
		return "", ErrEmpty
	}

	// CURIE expansion is allowed on input, output is always expanded. A
	// declared prefix wins over the scheme check: "ex:foo" is a CURIE when
	// "ex" is in the prefix map, an opaque absolute identifier otherwise.
	if idx := strings.Index(v, ":"); idx > 0 && !strings.HasPrefix(v, "//") {
		pfx, suffix := v[:idx], v[idx+1:]
		if mapped, ok := prefixes[pfx]; ok {
			return join(mapped, suffix), nil
		}
	}

	if absScheme.MatchString(v) {
		return v, nil
	}

	if base != "" {
		return join(strings.TrimRight(base, "/")+"/", strings.TrimLeft(v, "/")), nil
	}

	return v, nil
}

// join resolves ref against base the way a URL reference resolves,
// falling back to plain concatenation when either side does not parse.
func join(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return base + ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return base + ref
	}
	return b.ResolveReference(r).String()
}

// apiBase normalizes a request base URL to end with a single trailing slash.
func apiBase(base string) string {
	return strings.TrimRight(base, "/") + "/"
}

// CommunityIRI returns the dereferenceable identifier of a community.
func CommunityIRI(base, communityKey string) string {
	return apiBase(base) + "communities/" + communityKey
}

// EntityIRI returns the dereferenceable identifier of a community-scoped
// entity inside the named collection.
func EntityIRI(base, communityKey, collection, key string) string {
	return fmt.Sprintf("%scommunities/%s/%s/%s", apiBase(base), communityKey, collection, key)
}

// ContextIRI returns the identifier of the versioned JSON-LD context resource.
func ContextIRI(base, version string) string {
	if version == "" {
		version = "v1"
	}
	return apiBase(base) + "contexts/rec/" + version
}
