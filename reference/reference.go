// Package reference models a dependency's reference: a version range,
// an exact version, a URL, or a filesystem path, as a tagged variant
// parsed once at manifest ingestion instead of a handful of string
// prefix checks scattered through the resolver.
package reference

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Kind identifies which of the four reference shapes a Reference holds.
type Kind int

const (
	// KindRange is an unresolved semantic-version range, e.g. "^1.2.0".
	KindRange Kind = iota
	// KindExact is a concrete semantic version, e.g. "1.2.3".
	KindExact
	// KindURL is an absolute http(s) URL pointing directly at a tarball.
	KindURL
	// KindPath is a filesystem path, relative or absolute.
	KindPath
	// KindRoot is the empty sentinel reference held by the tree's root
	// node: "this is the project itself, do not fetch or extract".
	KindRoot
)

// A Reference is a parsed dependency descriptor's reference half. It is
// immutable once constructed.
type Reference struct {
	Kind Kind
	Raw  string
}

// Root is the distinguished sentinel reference of the resolved tree's
// root node.
var Root = Reference{Kind: KindRoot, Raw: ""}

// Parse classifies a raw reference string into its Kind without making
// any network call, exactly once, at manifest ingestion. Classification
// order matters: URLs and paths are syntactically unambiguous, so they are
// checked first; anything left is handed to semver to tell an exact
// version from a range.
func Parse(raw string) Reference {
	switch {
	case raw == "":
		return Root
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return Reference{Kind: KindURL, Raw: raw}
	case strings.HasPrefix(raw, "/"), strings.HasPrefix(raw, "./"), strings.HasPrefix(raw, "../"):
		return Reference{Kind: KindPath, Raw: raw}
	case isExactVersion(raw):
		return Reference{Kind: KindExact, Raw: raw}
	default:
		return Reference{Kind: KindRange, Raw: raw}
	}
}

// isExactVersion reports whether raw parses as a semantic version with no
// range operators at all, i.e. it pins to one version rather than a band
// of versions.
func isExactVersion(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	if strings.ContainsAny(trimmed, "^~<>=* |") {
		return false
	}
	if strings.Contains(trimmed, " - ") {
		return false
	}
	_, err := semver.NewVersion(trimmed)
	return err == nil
}

// IsNetworked reports whether pinning or fetching this reference requires
// talking to the registry or the network at all.
func (r Reference) IsNetworked() bool {
	return r.Kind == KindRange || r.Kind == KindExact || r.Kind == KindURL
}

func (r Reference) String() string {
	if r.Kind == KindRoot {
		return "<root>"
	}
	return r.Raw
}
