package tidy

// Parser extracts the bare import specifiers referenced by one source
// file. Keyed by file extension in parsers below.
type Parser interface {
	ParseImports(path string) ([]string, error)
}

var parsers = map[string]Parser{}
