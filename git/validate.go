package git

import (
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Remote names are used as a ref path component and a config subsection.
var validRemoteName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// validateRefName applies the check-ref-format rules to a branch or tag
// short name, plus the names git refuses on the command line.
func validateRefName(kind, name string) error {
	if name == "" {
		return invalidArgument(ErrInvalidName, kind, "%s name is required", kind)
	}
	switch {
	case strings.HasPrefix(name, "-"):
		return invalidArgument(ErrInvalidName, kind, "%q must not start with '-'", name)
	case name == "@" || name == "HEAD":
		return invalidArgument(ErrInvalidName, kind, "%q is reserved", name)
	}

	full := plumbing.NewBranchReferenceName(name)
	if kind == "tag" {
		full = plumbing.NewTagReferenceName(name)
	}
	if err := full.Validate(); err != nil {
		return invalidArgument(ErrInvalidName, kind, "%q is not a valid %s name", name, kind)
	}
	return nil
}

func validateRemoteName(name string) error {
	if name == "" {
		return invalidArgument(ErrInvalidName, "remote", "remote name is required")
	}
	if !validRemoteName.MatchString(name) || strings.Contains(name, "..") || strings.HasSuffix(name, ".lock") {
		return invalidArgument(ErrInvalidName, "remote", "%q is not a valid remote name", name)
	}
	return nil
}

// validateRevision rejects revisions that git would read as an option.
func validateRevision(name, rev string) error {
	if rev == "" {
		return invalidArgument(ErrInvalidArgument, name, "%s is required", name)
	}
	if strings.HasPrefix(rev, "-") {
		return invalidArgument(ErrInvalidArgument, name, "%s %q must not start with '-'", name, rev)
	}
	if strings.ContainsAny(rev, "\x00\n") {
		return invalidArgument(ErrInvalidArgument, name, "%s contains a control character", name)
	}
	return nil
}

// validatePaths rejects empty and NUL-containing paths. Paths are always
// passed after "--" so a leading dash is allowed.
func validatePaths(paths []string) error {
	for _, p := range paths {
		if p == "" {
			return invalidArgument(ErrInvalidArgument, "path", "empty path")
		}
		if strings.ContainsRune(p, 0) {
			return invalidArgument(ErrInvalidArgument, "path", "path %q contains NUL", p)
		}
	}
	return nil
}

// validateRefSpecs checks push and fetch refspecs with go-git's parser.
func validateRefSpecs(specs []string) error {
	for _, s := range specs {
		if strings.HasPrefix(s, "-") {
			return invalidArgument(ErrInvalidArgument, "refspec", "refspec %q must not start with '-'", s)
		}
		if !strings.Contains(s, ":") {
			if err := validateRevision("refspec", strings.TrimPrefix(s, "+")); err != nil {
				return err
			}
			continue
		}
		if err := config.RefSpec(s).Validate(); err != nil {
			return invalidArgument(ErrInvalidArgument, "refspec", "refspec %q: %v", s, err)
		}
	}
	return nil
}

// validateConfigKey requires a section and a variable name.
func validateConfigKey(key string) error {
	section, name, ok := strings.Cut(key, ".")
	if !ok || section == "" || name == "" || strings.HasSuffix(key, ".") {
		return invalidArgument(ErrInvalidName, "key", "config key %q must be section.name", key)
	}
	if strings.ContainsAny(key, "\x00\n") {
		return invalidArgument(ErrInvalidName, "key", "config key contains a control character")
	}
	return nil
}
