package icon

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/ini.v1"

	"github.com/bryanchriswhite/taskwatch/internal/logger"
)

// extensions are the only icon formats a lookup returns, in preference order.
var extensions = []string{".png", ".svg"}

// DefaultBaseDirs returns the directories icon themes are installed
// under, most specific first.
func DefaultBaseDirs(home, dataHome string, dataDirs []string) []string {
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	if len(dataDirs) == 0 {
		dataDirs = []string{"/usr/local/share", "/usr/share"}
	}
	dirs := []string{
		filepath.Join(home, ".icons"),
		filepath.Join(dataHome, "icons"),
	}
	for _, d := range dataDirs {
		dirs = append(dirs, filepath.Join(d, "icons"))
	}
	return dirs
}

// ThemeSearch finds icon files inside named icon themes for one target
// size and scale. Parsed index.theme files are cached.
type ThemeSearch struct {
	baseDirs []string
	size     int
	scale    int

	mu     sync.Mutex
	themes map[string]*theme
}

type theme struct {
	name     string
	roots    []string
	dirs     []themeDir
	inherits []string
}

type themeDir struct {
	path      string
	kind      string
	size      int
	scale     int
	minSize   int
	maxSize   int
	threshold int
}

// NewThemeSearch returns a search over baseDirs for size x size icons at scale.
func NewThemeSearch(baseDirs []string, size, scale int) *ThemeSearch {
	if scale < 1 {
		scale = 1
	}
	return &ThemeSearch{
		baseDirs: baseDirs,
		size:     size,
		scale:    scale,
		themes:   make(map[string]*theme),
	}
}

// Lookup searches the named theme and then the themes it inherits from.
// Directories whose size matches exactly are tried before the closest
// other sizes.
func (s *ThemeSearch) Lookup(themeName, iconName string) (string, bool) {
	if iconName == "" || strings.ContainsRune(iconName, filepath.Separator) {
		return "", false
	}

	visited := make(map[string]bool)
	queue := []string{themeName}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		t := s.load(name)
		if t == nil {
			continue
		}
		if path, ok := t.find(iconName, s.size, s.scale); ok {
			return path, true
		}
		queue = append(queue, t.inherits...)
	}
	return "", false
}

func (s *ThemeSearch) load(name string) *theme {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.themes[name]; ok {
		return t
	}
	t := s.parse(name)
	s.themes[name] = t
	return t
}

func (s *ThemeSearch) parse(name string) *theme {
	log := logger.WithComponent("icon")

	t := &theme{name: name}
	var index string
	for _, base := range s.baseDirs {
		root := filepath.Join(base, name)
		if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
			continue
		}
		t.roots = append(t.roots, root)
		if index == "" {
			if _, err := os.Stat(filepath.Join(root, "index.theme")); err == nil {
				index = filepath.Join(root, "index.theme")
			}
		}
	}
	if index == "" {
		log.Debug().Str("theme", name).Msg("Icon theme not installed")
		return nil
	}

	f, err := ini.LoadSources(ini.LoadOptions{Loose: true, IgnoreInlineComment: true}, index)
	if err != nil {
		log.Debug().Err(err).Str("theme", name).Msg("Unreadable index.theme")
		return nil
	}

	head := f.Section("Icon Theme")
	t.inherits = splitList(head.Key("Inherits").String())

	subdirs := splitList(head.Key("Directories").String())
	subdirs = append(subdirs, splitList(head.Key("ScaledDirectories").String())...)
	seen := make(map[string]bool)
	for _, sub := range subdirs {
		if seen[sub] {
			continue
		}
		seen[sub] = true

		sec, err := f.GetSection(sub)
		if err != nil {
			continue
		}
		size := sec.Key("Size").MustInt(0)
		if size <= 0 {
			continue
		}
		t.dirs = append(t.dirs, themeDir{
			path:      sub,
			kind:      sec.Key("Type").MustString("Threshold"),
			size:      size,
			scale:     sec.Key("Scale").MustInt(1),
			minSize:   sec.Key("MinSize").MustInt(size),
			maxSize:   sec.Key("MaxSize").MustInt(size),
			threshold: sec.Key("Threshold").MustInt(2),
		})
	}

	log.Debug().
		Str("theme", name).
		Int("dirs", len(t.dirs)).
		Strs("inherits", t.inherits).
		Msg("Loaded icon theme")
	return t
}

func (t *theme) find(iconName string, size, scale int) (string, bool) {
	for _, d := range t.dirs {
		if !d.matches(size, scale) {
			continue
		}
		if path, ok := t.file(d, iconName); ok {
			return path, true
		}
	}

	best, bestDist := "", -1
	for _, d := range t.dirs {
		dist := d.distance(size, scale)
		if bestDist >= 0 && dist >= bestDist {
			continue
		}
		if path, ok := t.file(d, iconName); ok {
			best, bestDist = path, dist
		}
	}
	return best, bestDist >= 0
}

func (t *theme) file(d themeDir, iconName string) (string, bool) {
	for _, root := range t.roots {
		for _, ext := range extensions {
			path := filepath.Join(root, d.path, iconName+ext)
			if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

func (d themeDir) matches(size, scale int) bool {
	if d.scale != scale {
		return false
	}
	switch d.kind {
	case "Fixed":
		return d.size == size
	case "Scalable":
		return d.minSize <= size && size <= d.maxSize
	default:
		return d.size-d.threshold <= size && size <= d.size+d.threshold
	}
}

func (d themeDir) distance(size, scale int) int {
	want := size * scale
	var lo, hi int
	switch d.kind {
	case "Fixed":
		lo, hi = d.size*d.scale, d.size*d.scale
	case "Scalable":
		lo, hi = d.minSize*d.scale, d.maxSize*d.scale
	default:
		lo, hi = (d.size-d.threshold)*d.scale, (d.size+d.threshold)*d.scale
	}
	switch {
	case want < lo:
		return lo - want
	case want > hi:
		return want - hi
	default:
		return 0
	}
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
