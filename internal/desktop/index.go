package desktop

import "strings"

// IconIndex maps window classes, descriptor file stems and display names
// to icon names. It is built once and never modified.
type IconIndex struct {
	icons map[string]string
}

// BuildIconIndex indexes every entry that declares an icon, whether or
// not it is displayable. Each key is stored verbatim and lowercased; the
// first entry to claim a key keeps it.
func BuildIconIndex(entries []*Entry) *IconIndex {
	idx := &IconIndex{icons: make(map[string]string)}

	for _, e := range entries {
		if !e.hasIcon || e.Icon == "" {
			continue
		}
		if e.StartupWMClass != "" {
			idx.add(e.StartupWMClass, e.Icon)
		}
		idx.add(e.Stem(), e.Icon)
		if e.hasName {
			idx.add(e.Name, e.Icon)
		}
	}
	return idx
}

func (x *IconIndex) add(key, icon string) {
	for _, k := range []string{key, strings.ToLower(key)} {
		if k == "" {
			continue
		}
		if _, ok := x.icons[k]; !ok {
			x.icons[k] = icon
		}
	}
}

// Lookup returns the icon name indexed under key.
func (x *IconIndex) Lookup(key string) (string, bool) {
	if x == nil {
		return "", false
	}
	icon, ok := x.icons[key]
	return icon, ok
}

// Len returns the number of keys.
func (x *IconIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.icons)
}
