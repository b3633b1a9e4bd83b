package desktop

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bryanchriswhite/taskwatch/internal/logger"
)

// AppEntry is an installed application that can be shown in a launcher.
type AppEntry struct {
	Name       string   `json:"name" yaml:"name"`
	Exec       string   `json:"exec" yaml:"exec"`
	IconName   string   `json:"icon_name" yaml:"icon_name"`
	IconPath   string   `json:"icon_path,omitempty" yaml:"icon_path,omitempty"`
	SourceFile string   `json:"source_file" yaml:"source_file"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// IconFinder resolves a symbolic icon name to an icon file.
type IconFinder interface {
	FindInTheme(name string) (string, bool)
}

// DefaultDirs returns the descriptor directories in scan order. System
// directories come first, so on duplicate names they win over the
// user's own directory.
func DefaultDirs(home string) []string {
	if home == "" {
		home = "."
	}
	return []string{
		"/usr/share/applications",
		"/usr/local/share/applications",
		filepath.Join(home, ".local", "share", "applications"),
	}
}

// Scan parses every *.desktop file found directly inside dirs, in
// directory order and file-name order within a directory. Missing
// directories and unparsable files are skipped.
func Scan(dirs []string) []*Entry {
	log := logger.WithComponent("desktop")

	var entries []*Entry
	for _, dir := range dirs {
		files, err := os.ReadDir(dir)
		if err != nil {
			log.Debug().Err(err).Str("dir", dir).Msg("Skipping descriptor directory")
			continue
		}

		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != ".desktop" {
				continue
			}
			path := filepath.Join(dir, f.Name())
			e, err := ParseFile(path)
			if err != nil {
				log.Debug().Err(err).Msg("Skipping descriptor")
				continue
			}
			entries = append(entries, e)
		}
	}

	log.Debug().Int("count", len(entries)).Int("dirs", len(dirs)).Msg("Scanned descriptors")
	return entries
}

// Apps filters scanned entries down to displayable applications, sorted
// case-insensitively by name. finder may be nil, leaving IconPath empty.
func Apps(entries []*Entry, finder IconFinder) []AppEntry {
	seen := make(map[string]bool)
	apps := make([]AppEntry, 0, len(entries))

	for _, e := range entries {
		if e.NoDisplay || e.Hidden {
			continue
		}
		if e.Type != typeApplication {
			continue
		}

		// The name is claimed before the command is checked: a file with
		// an unusable Exec still hides later files with the same name.
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true

		exec := SanitizeExec(e.Exec)
		if exec == "" {
			continue
		}

		app := AppEntry{
			Name:       e.Name,
			Exec:       exec,
			IconName:   e.Icon,
			SourceFile: e.Path,
			Categories: e.Categories,
		}
		if finder != nil {
			if path, ok := finder.FindInTheme(e.Icon); ok {
				app.IconPath = path
			}
		}
		apps = append(apps, app)
	}

	slices.SortStableFunc(apps, func(a, b AppEntry) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return apps
}

// ListApps scans dirs and returns the displayable applications.
func ListApps(dirs []string, finder IconFinder) []AppEntry {
	return Apps(Scan(dirs), finder)
}
