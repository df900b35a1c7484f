package git

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
)

const revParseFormat = "rev-parse"

// detailsFlags are answered one line each, in this order. Git prints the
// answers in flag order; the parser depends on it.
var detailsFlags = []string{
	"--absolute-git-dir",
	"--git-common-dir",
	"--is-bare-repository",
	"--is-inside-git-dir",
	"--is-inside-work-tree",
	"--show-toplevel",
}

// parseRepositoryDetails decodes the answers to detailsFlags. The final
// --show-toplevel line is absent for bare repositories and when run inside
// the git directory. Relative paths are resolved against dir.
func parseRepositoryDetails(rd *buffer.Reader, dir string) (*RepositoryDetails, error) {
	var lines []string
	for {
		raw, err := rd.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readFailure(revParseFormat, "reading answer", rd, err)
		}
		lines = append(lines, strings.TrimRight(string(raw), "\r"))
	}

	want := len(detailsFlags)
	if len(lines) != want && len(lines) != want-1 {
		return nil, &ParseError{
			Format: revParseFormat,
			Stage:  "repository details",
			Offset: rd.Offset(),
			Err:    fmt.Errorf("expected %d answers, got %d", want, len(lines)),
		}
	}

	d := &RepositoryDetails{
		GitDir:    lines[0],
		CommonDir: absolute(dir, lines[1]),
	}
	flags := []*bool{&d.Bare, &d.InsideGitDir, &d.InsideWorkTree}
	for i, f := range flags {
		switch lines[2+i] {
		case "true":
			*f = true
		case "false":
		default:
			return nil, &ParseError{
				Format: revParseFormat,
				Stage:  detailsFlags[2+i],
				Offset: rd.Offset(),
				Err:    fmt.Errorf("unexpected answer %q", lines[2+i]),
			}
		}
	}
	if len(lines) == want {
		d.WorkTree = lines[want-1]
	}
	return d, nil
}

func absolute(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(dir, p))
}
