// Package pkgmeta decodes the handful of package.json fields the
// installer actually consumes: dependencies, bin, and the three
// lifecycle script names, plus name and version. Everything else in a real package.json
// (author, license, keywords, ...) is deliberately not modeled.
package pkgmeta

import "encoding/json"

// Scripts holds the three lifecycle phases the linker runs, in
// execution order.
type Scripts struct {
	Preinstall  string `json:"preinstall"`
	Install     string `json:"install"`
	Postinstall string `json:"postinstall"`
}

// Metadata is the payload of a package's manifest file, trimmed to the
// fields the resolver and linker read.
type Metadata struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
	Bin          json.RawMessage   `json:"bin"`
	Scripts      Scripts           `json:"scripts"`
}

// Parse decodes raw package.json bytes. A missing "dependencies" key
// decodes to a nil map, which callers treat as empty.
func Parse(raw []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Bins normalizes the "bin" field, which in real package.json files is
// either a single string (the package name maps to that one executable)
// or an object of name -> path. It returns a name -> path map either way.
func (m Metadata) Bins() (map[string]string, error) {
	if len(m.Bin) == 0 || string(m.Bin) == "null" {
		return nil, nil
	}
	var asMap map[string]string
	if err := json.Unmarshal(m.Bin, &asMap); err == nil {
		return asMap, nil
	}
	var asString string
	if err := json.Unmarshal(m.Bin, &asString); err == nil {
		if m.Name == "" || asString == "" {
			return nil, nil
		}
		return map[string]string{m.Name: asString}, nil
	}
	return nil, nil
}
