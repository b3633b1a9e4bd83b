package icon

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanchriswhite/taskwatch/internal/desktop"
	"github.com/bryanchriswhite/taskwatch/internal/lazy"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
)

// Options configures a Resolver.
type Options struct {
	// ApplicationDirs are scanned, in order, to build the icon index.
	ApplicationDirs []string
	// BaseDirs hold installed icon themes.
	BaseDirs []string
	// Size and Scale select the preferred icon directory.
	Size  int
	Scale int
	// FallbackTheme is searched after the current theme.
	FallbackTheme string
	// Theme, when set, replaces detection of the current theme.
	Theme string
	// Detector finds the current theme when Theme is empty.
	Detector ThemeDetector
}

// Resolver maps window classes and icon names to icon files. The desktop
// icon index and the current theme name are each computed once, on first
// use, and are read-only afterwards; a Resolver is safe for concurrent use.
type Resolver struct {
	index    *lazy.Value[*desktop.IconIndex]
	theme    *lazy.Value[string]
	fallback string
	search   *ThemeSearch
}

// NewResolver builds a Resolver. Nothing is scanned until first use.
func NewResolver(opts Options) *Resolver {
	if opts.Size <= 0 {
		opts.Size = 48
	}
	if opts.FallbackTheme == "" {
		opts.FallbackTheme = FallbackTheme
	}

	dirs := append([]string(nil), opts.ApplicationDirs...)
	r := &Resolver{
		fallback: opts.FallbackTheme,
		search:   NewThemeSearch(opts.BaseDirs, opts.Size, opts.Scale),
		index: lazy.New(func() *desktop.IconIndex {
			idx := desktop.BuildIconIndex(desktop.Scan(dirs))
			logger.WithComponent("icon").Debug().Int("keys", idx.Len()).Msg("Built icon index")
			return idx
		}),
	}

	if opts.Theme != "" {
		r.theme = lazy.Of(opts.Theme)
	} else {
		detector := opts.Detector
		if detector.Fallback == "" {
			detector.Fallback = opts.FallbackTheme
		}
		r.theme = lazy.New(detector.Detect)
	}
	return r
}

// Index returns the desktop icon index, building it on first call.
func (r *Resolver) Index() *desktop.IconIndex {
	return r.index.Get()
}

// CurrentTheme returns the user's icon theme, detecting it on first call.
func (r *Resolver) CurrentTheme() string {
	return r.theme.Get()
}

// ResolveByClass finds an icon file for a window class.
func (r *Resolver) ResolveByClass(class string) (string, bool) {
	for _, name := range r.candidates(class) {
		if path, ok := r.FindInTheme(name); ok {
			return path, true
		}
	}
	return "", false
}

// candidates lists the icon names to try for class: the indexed icon
// name (exact key first, then lowercase), the class, the lowercase class.
func (r *Resolver) candidates(class string) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(n string) {
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		names = append(names, n)
	}

	idx := r.Index()
	if mapped, ok := idx.Lookup(class); ok {
		add(mapped)
	} else if mapped, ok := idx.Lookup(strings.ToLower(class)); ok {
		add(mapped)
	}
	add(class)
	add(strings.ToLower(class))
	return names
}

// FindInTheme resolves an icon name to a file. An absolute path that
// exists is returned as is; otherwise the current theme and then the
// fallback theme are searched.
func (r *Resolver) FindInTheme(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if filepath.IsAbs(name) {
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			return name, true
		}
		return "", false
	}

	current := r.CurrentTheme()
	if path, ok := r.search.Lookup(current, name); ok {
		return path, true
	}
	if current != r.fallback {
		if path, ok := r.search.Lookup(r.fallback, name); ok {
			return path, true
		}
	}
	return "", false
}
