package desktop

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// ErrParse reports a descriptor file that could not be read or parsed.
var ErrParse = errors.New("malformed desktop entry")

const (
	mainSection     = "Desktop Entry"
	typeApplication = "Application"
	defaultIconName = "application-x-executable"
	defaultAppName  = "Unknown"
)

// loadOptions tunes the INI parser to the desktop entry format: ';' and
// '#' are ordinary value characters, backslashes are not continuations,
// and quotes in Exec lines are kept.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	PreserveSurroundedQuote: true,
	KeyValueDelimiters:      "=",
}

// Entry is the raw content of one descriptor's [Desktop Entry] section.
type Entry struct {
	Path           string
	Type           string
	Name           string
	Exec           string
	Icon           string
	StartupWMClass string
	Categories     []string
	NoDisplay      bool
	Hidden         bool

	hasName bool
	hasIcon bool
}

// Stem is the file name without its .desktop extension.
func (e *Entry) Stem() string {
	return strings.TrimSuffix(filepath.Base(e.Path), filepath.Ext(e.Path))
}

// ParseFile reads a single descriptor.
func ParseFile(path string) (*Entry, error) {
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return parse(f, path)
}

// Parse reads a descriptor from memory; path is recorded as its source.
func Parse(data []byte, path string) (*Entry, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return parse(f, path)
}

func parse(f *ini.File, path string) (*Entry, error) {
	sec, err := f.GetSection(mainSection)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: no [%s] section", ErrParse, path, mainSection)
	}

	e := &Entry{
		Path:           path,
		Type:           typeApplication,
		Name:           defaultAppName,
		Icon:           defaultIconName,
		Exec:           sec.Key("Exec").String(),
		StartupWMClass: sec.Key("StartupWMClass").String(),
		NoDisplay:      sec.Key("NoDisplay").String() == "true",
		Hidden:         sec.Key("Hidden").String() == "true",
		Categories:     splitCategories(sec.Key("Categories").String()),
	}
	if sec.HasKey("Type") {
		e.Type = sec.Key("Type").String()
	}
	if sec.HasKey("Name") {
		e.Name = sec.Key("Name").String()
		e.hasName = true
	}
	if sec.HasKey("Icon") {
		e.Icon = sec.Key("Icon").String()
		e.hasIcon = true
	}
	return e, nil
}

// splitCategories splits a ';'-delimited list, dropping empty and
// repeated items.
func splitCategories(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range strings.Split(raw, ";") {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
