package git

import (
	"bytes"
	"errors"
	"io"

	"github.com/jmgilman/gitcli/internal/buffer"
)

const remoteFormat = "remote"

// parseRemotes decodes `git remote -v` output. Each remote appears on one
// line per direction, "<name>\t<url> (fetch|push)". Remotes keep the order of
// their first line.
func parseRemotes(rd *buffer.Reader) ([]Remote, error) {
	var remotes []Remote
	index := map[string]int{}

	for {
		line, err := rd.ReadLine()
		if errors.Is(err, io.EOF) {
			return remotes, nil
		}
		if err != nil {
			return nil, readFailure(remoteFormat, "reading remote", rd, err)
		}
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}

		name, url, direction, skip, err := parseRemoteLine(line)
		if err != nil {
			return nil, malformed(remoteFormat, "remote line", rd, line, err)
		}
		if skip {
			continue
		}

		i, ok := index[name]
		if !ok {
			i = len(remotes)
			index[name] = i
			remotes = append(remotes, Remote{Name: name})
		}
		switch direction {
		case "fetch":
			remotes[i].FetchURL = url
		case "push":
			remotes[i].PushURL = url
		}
	}
}

// parseRemoteLine splits one line. URLs may contain parentheses, so the
// direction is the text between the last '(' and the last ')'. A remote with
// no url prints a tab followed by end of line and is skipped.
func parseRemoteLine(line []byte) (name, url, direction string, skip bool, err error) {
	tab := bytes.IndexByte(line, '\t')
	if tab <= 0 {
		return "", "", "", false, errUnexpected("remote line without name", line)
	}
	name = string(line[:tab])
	rest := line[tab+1:]
	if len(bytes.TrimSpace(rest)) == 0 {
		return name, "", "", true, nil
	}

	closing := bytes.LastIndexByte(rest, ')')
	if closing < 0 {
		return "", "", "", false, errUnexpected("remote line without direction", line)
	}
	opening := bytes.LastIndexByte(rest[:closing], '(')
	if opening < 0 {
		return "", "", "", false, errUnexpected("remote line without direction", line)
	}

	direction = string(rest[opening+1 : closing])
	if direction != "fetch" && direction != "push" {
		return "", "", "", false, errUnexpected("remote direction", rest[opening+1:closing])
	}
	url = string(bytes.TrimRight(rest[:opening], " "))
	return name, url, direction, false, nil
}
