// Package platform locates the per-user config file and dev log directory.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DefaultAppName names the per-user config and log directories.
const DefaultAppName = "taskboard"

// Paths holds where taskboard reads its config and writes dev logs. The board itself keeps
// nothing on disk.
type Paths struct {
	ConfigPath string
	LogDir     string
}

// Env is the host view Resolve works from.
type Env struct {
	GOOS   string
	Home   string
	Getenv func(string) string
}

// HostEnv describes the running process.
func HostEnv() Env {
	home, _ := os.UserHomeDir()
	return Env{GOOS: runtime.GOOS, Home: home, Getenv: os.Getenv}
}

// AppDir returns the directory name for appName. Dev mode gets a separate "-dev" tree.
func AppDir(appName string, devMode bool) string {
	name := strings.TrimSpace(appName)
	if name == "" {
		return ""
	}
	if devMode {
		name += "-dev"
	}
	return name
}

// Resolve returns the config file and log directory for appName on env's platform:
// XDG config/state homes on unix, APPDATA/LOCALAPPDATA on windows, Application Support and
// Library/Logs on macOS.
func Resolve(env Env, appName string, devMode bool) (Paths, error) {
	dir := AppDir(appName, devMode)
	if dir == "" {
		return Paths{}, errors.New("empty app name")
	}
	getenv := env.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	fromHome := func(parts ...string) string {
		if env.Home == "" {
			return ""
		}
		return filepath.Join(append([]string{env.Home}, parts...)...)
	}
	orElse := func(v, fallback string) string {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
		return fallback
	}

	var configBase, logBase string
	switch env.GOOS {
	case "windows":
		configBase = orElse(getenv("APPDATA"), fromHome("AppData", "Roaming"))
		logBase = orElse(getenv("LOCALAPPDATA"), fromHome("AppData", "Local"))
	case "darwin":
		configBase = fromHome("Library", "Application Support")
		logBase = fromHome("Library", "Logs")
	default:
		configBase = orElse(getenv("XDG_CONFIG_HOME"), fromHome(".config"))
		logBase = orElse(getenv("XDG_STATE_HOME"), fromHome(".local", "state"))
	}
	if configBase == "" || logBase == "" {
		return Paths{}, fmt.Errorf("resolve %s paths: no home directory", env.GOOS)
	}
	return Paths{
		ConfigPath: filepath.Join(configBase, dir, "config.toml"),
		LogDir:     filepath.Join(logBase, dir, "log"),
	}, nil
}

// LogFile returns the dev log file of appName for the day of t.
func (p Paths) LogFile(appName string, t time.Time) string {
	return filepath.Join(p.LogDir, fileStem(appName)+"-"+t.Format("20060102")+".log")
}

// fileStem keeps letters, digits, dots and underscores and turns every other rune into a dash.
func fileStem(appName string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(appName))
	stem = strings.Trim(stem, "-.")
	if stem == "" {
		return DefaultAppName
	}
	return stem
}
