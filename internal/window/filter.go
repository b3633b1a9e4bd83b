package window

import "strings"

// Filter decides which windows are real user applications. It only
// affects what is reported; filtered windows are still tracked.
type Filter struct {
	// SelfTitle is the exact title of the consumer's own dock window.
	SelfTitle string `mapstructure:"self_title" yaml:"self_title"`
	// SelfClasses are the dock's window classes, compared case-insensitively.
	SelfClasses []string `mapstructure:"self_classes" yaml:"self_classes"`
	// DenyExact are helper classes skipped on a case-insensitive match.
	DenyExact []string `mapstructure:"deny_exact" yaml:"deny_exact"`
	// DenyContains are skipped when the lowercased class contains them.
	DenyContains []string `mapstructure:"deny_contains" yaml:"deny_contains"`
}

// DefaultFilter skips the dock itself and the usual GNOME shell helpers.
func DefaultFilter() Filter {
	return Filter{
		SelfTitle:   "Taskwatch Dock",
		SelfClasses: []string{"taskwatch-dock", "taskwatch_dock"},
		DenyExact: []string{
			"gjs",                 // shell extensions
			"ibus-extension-gtk3", // input method
			"ibus-ui-gtk3",
		},
		DenyContains: []string{
			"gnome-shell",
			"gsd-", // settings daemons
			"polkit",
		},
	}
}

// ShouldSkip reports whether r should be left out of the reported windows.
func (f Filter) ShouldSkip(r Record) bool {
	if r.Title == "" && r.Class == "" {
		return true
	}
	if f.SelfTitle != "" && r.Title == f.SelfTitle {
		return true
	}

	class := strings.ToLower(r.Class)
	for _, c := range f.SelfClasses {
		if class == strings.ToLower(c) {
			return true
		}
	}
	for _, c := range f.DenyExact {
		if class == strings.ToLower(c) {
			return true
		}
	}
	if class == "" {
		return false
	}
	for _, c := range f.DenyContains {
		if c != "" && strings.Contains(class, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
