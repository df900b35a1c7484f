package git

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/jmgilman/gitcli/internal/buffer"
)

const configFormat = "config"

// ConfigLevel is the scope a configuration entry was read from, in
// increasing priority.
type ConfigLevel int

const (
	ConfigLevelUnknown ConfigLevel = iota
	ConfigLevelPortable
	ConfigLevelSystem
	ConfigLevelXdg
	ConfigLevelGlobal
	ConfigLevelLocal
	ConfigLevelWorktree
	ConfigLevelCommand
)

func (l ConfigLevel) String() string {
	switch l {
	case ConfigLevelPortable:
		return "portable"
	case ConfigLevelSystem:
		return "system"
	case ConfigLevelXdg:
		return "xdg"
	case ConfigLevelGlobal:
		return "global"
	case ConfigLevelLocal:
		return "local"
	case ConfigLevelWorktree:
		return "worktree"
	case ConfigLevelCommand:
		return "command"
	default:
		return "unknown"
	}
}

// ConfigEntry is one key/value pair from a config listing. Source is the
// normalized file the entry came from, or "command line".
type ConfigEntry struct {
	Key    string
	Value  string
	Level  ConfigLevel
	Source string

	// NoValue is set for a bare key, which git treats as boolean true.
	NoValue bool
}

const commandLineSource = "command line"

// configLevels maps normalized config file paths to their level. It is built
// once, before any listing is parsed, so the scan only compares strings.
type configLevels struct {
	root  string
	goos  string
	paths []levelPath
}

type levelPath struct {
	path  string
	level ConfigLevel
}

// newConfigLevels collects the well-known config locations for goos. getenv
// resolves the variables git itself consults.
func newConfigLevels(details *RepositoryDetails, root, gitPath, goos string, getenv func(string) string) *configLevels {
	c := &configLevels{root: root, goos: goos}
	add := func(level ConfigLevel, path string) {
		if path == "" {
			return
		}
		c.paths = append(c.paths, levelPath{path: c.normalize(path), level: level})
	}

	if goos == "windows" {
		if pd := getenv("PROGRAMDATA"); pd != "" {
			add(ConfigLevelPortable, filepath.Join(pd, "Git", "config"))
		}
	}

	if sys := getenv("GIT_CONFIG_SYSTEM"); sys != "" {
		add(ConfigLevelSystem, sys)
	} else {
		add(ConfigLevelSystem, "/etc/gitconfig")
		for _, prefix := range gitPrefixes(gitPath) {
			add(ConfigLevelSystem, filepath.Join(prefix, "etc", "gitconfig"))
		}
	}

	xdgHome := getenv("XDG_CONFIG_HOME")
	if xdgHome == "" {
		xdgHome = xdg.ConfigHome
	}
	add(ConfigLevelXdg, filepath.Join(xdgHome, "git", "config"))

	if global := getenv("GIT_CONFIG_GLOBAL"); global != "" {
		add(ConfigLevelGlobal, global)
	} else if home := getenv("HOME"); home != "" {
		add(ConfigLevelGlobal, filepath.Join(home, ".gitconfig"))
	} else if home, err := os.UserHomeDir(); err == nil {
		add(ConfigLevelGlobal, filepath.Join(home, ".gitconfig"))
	}

	if details != nil {
		if details.CommonDir != "" {
			add(ConfigLevelLocal, filepath.Join(details.CommonDir, "config"))
		}
		if details.GitDir != "" {
			add(ConfigLevelWorktree, filepath.Join(details.GitDir, "config.worktree"))
		}
	}
	return c
}

// gitPrefixes guesses the installation prefix of the git binary, which is
// where a non-/etc system config lives.
func gitPrefixes(gitPath string) []string {
	var out []string
	if p, err := lookPath(gitPath); err == nil {
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			p = resolved
		}
		// <prefix>/bin/git
		out = append(out, filepath.Dir(filepath.Dir(p)))
	}
	return out
}

// normalize strips the origin prefix, resolves relative paths against the
// directory git ran in and canonicalizes the result.
func (c *configLevels) normalize(source string) string {
	p := strings.TrimPrefix(source, "file:")
	if !filepath.IsAbs(p) && c.root != "" {
		p = filepath.Join(c.root, p)
	}
	p = filepath.Clean(p)
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return p
}

// level returns the level of a normalized path, or ConfigLevelUnknown.
func (c *configLevels) level(path string) ConfigLevel {
	for _, lp := range c.paths {
		if c.samePath(lp.path, path) {
			return lp.level
		}
	}
	return ConfigLevelUnknown
}

func (c *configLevels) samePath(a, b string) bool {
	if c.goos == "windows" || c.goos == "darwin" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// parseConfig decodes `git config --list --show-origin -z` output. Each
// record is "<origin>\0<key>\n<value>\0", or "<origin>\0<key>\0" for a bare
// key. Files not in the level table are included files and inherit the level
// of the entry before them.
func parseConfig(rd *buffer.Reader, levels *configLevels, yield func(ConfigEntry) error) error {
	var (
		lastOrigin string
		lastSource string
		lastLevel  = ConfigLevelUnknown
	)
	for {
		origin, err := rd.ReadUntil(0)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return readFailure(configFormat, "reading origin", rd, err)
		}

		var entry ConfigEntry
		switch {
		case bytes.Equal(origin, []byte("command line:")):
			entry.Source, entry.Level = commandLineSource, ConfigLevelCommand
			lastOrigin = ""
		case bytes.HasPrefix(origin, []byte("file:")):
			if string(origin) == lastOrigin {
				entry.Source, entry.Level = lastSource, lastLevel
				break
			}
			entry.Source = levels.normalize(string(origin))
			entry.Level = levels.level(entry.Source)
			if entry.Level == ConfigLevelUnknown {
				entry.Level = lastLevel
			}
			lastOrigin = string(origin)
		default:
			entry.Source = string(origin)
			entry.Level = ConfigLevelUnknown
			lastOrigin = ""
		}

		key, delim, err := rd.ReadUntilAny("\n\x00")
		if err != nil {
			return truncated(configFormat, "reading key", rd, err)
		}
		if len(key) == 0 {
			return malformed(configFormat, "key", rd, key, errUnexpected("empty key", key))
		}
		entry.Key = string(key)

		if delim == 0 {
			entry.NoValue = true
		} else {
			value, err := rd.ReadUntil(0)
			if err != nil {
				return truncated(configFormat, "reading value of "+entry.Key, rd, err)
			}
			entry.Value = string(value)
		}

		lastSource, lastLevel = entry.Source, entry.Level
		if err := yield(entry); err != nil {
			return err
		}
	}
}
