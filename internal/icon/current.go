package icon

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"gopkg.in/ini.v1"

	"github.com/bryanchriswhite/taskwatch/internal/logger"
)

const (
	portalService   = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	portalSettings  = "org.freedesktop.portal.Settings"
	interfaceSchema = "org.gnome.desktop.interface"
	iconThemeKey    = "icon-theme"

	// FallbackTheme is the theme every icon theme ultimately inherits from.
	FallbackTheme = "hicolor"

	settingsTimeout = 2 * time.Second
)

// SettingsService is a desktop interface-settings provider.
type SettingsService interface {
	Name() string
	IconTheme(ctx context.Context) (string, error)
}

// PortalSettings reads the icon theme through the xdg desktop portal
// Settings interface on the session bus.
type PortalSettings struct{}

// Name implements SettingsService.
func (PortalSettings) Name() string { return "portal" }

// IconTheme implements SettingsService.
func (PortalSettings) IconTheme(ctx context.Context) (string, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return "", fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(portalService, dbus.ObjectPath(portalPath))

	var v dbus.Variant
	err = obj.CallWithContext(ctx, portalSettings+".ReadOne", 0, interfaceSchema, iconThemeKey).Store(&v)
	if err != nil {
		// Portals older than version 2 only offer Read, which wraps the
		// value in an extra variant.
		if err2 := obj.CallWithContext(ctx, portalSettings+".Read", 0, interfaceSchema, iconThemeKey).Store(&v); err2 != nil {
			return "", fmt.Errorf("read %s %s: %w", interfaceSchema, iconThemeKey, errors.Join(err, err2))
		}
	}

	for {
		inner, ok := v.Value().(dbus.Variant)
		if !ok {
			break
		}
		v = inner
	}

	name, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s value of type %s", iconThemeKey, v.Signature())
	}
	return name, nil
}

// GSettingsCLI asks the gsettings tool.
type GSettingsCLI struct{}

// Name implements SettingsService.
func (GSettingsCLI) Name() string { return "gsettings" }

// IconTheme implements SettingsService.
func (GSettingsCLI) IconTheme(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "gsettings", "get", interfaceSchema, iconThemeKey).Output()
	if err != nil {
		return "", fmt.Errorf("gsettings: %w", err)
	}
	return strings.Trim(strings.TrimSpace(string(out)), "'"), nil
}

// ThemeDetector decides which icon theme the user has configured: the
// settings services in order, then the GTK settings file, then Fallback.
type ThemeDetector struct {
	Services   []SettingsService
	ConfigHome string
	Fallback   string
}

// DefaultThemeDetector asks the desktop portal, then gsettings.
func DefaultThemeDetector(configHome string) ThemeDetector {
	return ThemeDetector{
		Services:   []SettingsService{PortalSettings{}, GSettingsCLI{}},
		ConfigHome: configHome,
		Fallback:   FallbackTheme,
	}
}

// Detect returns the configured theme name. It never fails.
func (d ThemeDetector) Detect() string {
	log := logger.WithComponent("icon")

	for _, svc := range d.Services {
		ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
		name, err := svc.IconTheme(ctx)
		cancel()
		if err != nil {
			log.Debug().Err(err).Str("source", svc.Name()).Msg("Icon theme unavailable")
			continue
		}
		if name = strings.TrimSpace(name); name != "" {
			log.Debug().Str("source", svc.Name()).Str("theme", name).Msg("Detected icon theme")
			return name
		}
	}

	if name, ok := d.fromSettingsFile(); ok {
		log.Debug().Str("source", "settings.ini").Str("theme", name).Msg("Detected icon theme")
		return name
	}

	fallback := d.Fallback
	if fallback == "" {
		fallback = FallbackTheme
	}
	return fallback
}

func (d ThemeDetector) fromSettingsFile() (string, bool) {
	if d.ConfigHome == "" {
		return "", false
	}
	for _, gtk := range []string{"gtk-3.0", "gtk-4.0"} {
		path := filepath.Join(d.ConfigHome, gtk, "settings.ini")
		f, err := ini.LoadSources(ini.LoadOptions{Loose: true, IgnoreInlineComment: true}, path)
		if err != nil {
			continue
		}
		for _, sec := range f.Sections() {
			if name := strings.TrimSpace(sec.Key("gtk-icon-theme-name").String()); name != "" {
				return strings.Trim(name, `"`), true
			}
		}
	}
	return "", false
}
