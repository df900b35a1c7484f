package cache

import (
	"net/url"
	"path/filepath"
	"strings"
)

// normalizeURL maps a remote URL to a consistent filesystem-safe path.
//
// Normalization rules:
// 1. Strip .git suffix and trailing slashes
// 2. Convert SSH URLs (git@host:path) to host/path format
// 3. Convert http, https, ssh and git URLs to host/path format, dropping
// credentials and ports
// 4. Convert file URLs and local paths to local/<path>
//
// Examples:
//   - https://github.com/my/repo.git → github.com/my/repo
//   - git@github.com:my/repo → github.com/my/repo
//   - ssh://git@github.com:22/my/repo → github.com/my/repo
//   - /srv/git/repo.git → local/srv/git/repo
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSuffix(strings.TrimRight(rawURL, "/"), ".git")

	// Handle scp-like SSH URLs (git@host:path)
	if strings.Contains(rawURL, "@") && strings.Contains(rawURL, ":") && !strings.Contains(rawURL, "://") {
		parts := strings.SplitN(rawURL, "@", 2)
		hostPath := strings.Replace(parts[1], ":", "/", 1)
		return cleanPath(hostPath)
	}

	parsed, err := url.Parse(rawURL)
	if err == nil {
		switch parsed.Scheme {
		case "http", "https", "ssh", "git":
			return cleanPath(parsed.Hostname() + parsed.Path)
		case "file":
			return cleanPath("local" + parsed.Path)
		}
	}

	if filepath.IsAbs(rawURL) {
		return cleanPath("local" + filepath.ToSlash(rawURL))
	}
	return cleanPath(rawURL)
}

// cleanPath removes empty, "." and ".." elements so a URL can never place
// data outside the cache directory.
func cleanPath(p string) string {
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}

// makeCompositeKey creates a composite key from URL, ref, and cache key.
// Format: normalizedURL/ref/cacheKey
//
// Example:
//   - (https://github.com/my/repo, main, team-docs) → github.com/my/repo/main/team-docs
func makeCompositeKey(rawURL, ref, cacheKey string) string {
	return normalizeURL(rawURL) + "/" + ref + "/" + cacheKey
}
