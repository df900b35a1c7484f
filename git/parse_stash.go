package git

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
)

const stashFormat = "stash"

// stashListFormat prints "<oid>\t<selector>\t<subject>" per entry.
const stashListFormat = "--format=%H%x09%gd%x09%gs"

func parseStashList(rd *buffer.Reader) ([]StashEntry, error) {
	var out []StashEntry
	for {
		raw, err := rd.ReadLine()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, readFailure(stashFormat, "reading entry", rd, err)
		}
		if len(raw) == 0 {
			continue
		}

		parts := strings.SplitN(string(raw), "\t", 3)
		if len(parts) != 3 {
			return nil, malformed(stashFormat, "stash entry", rd, raw, errUnexpected("stash entry", raw))
		}
		id, err := ParseObjectID(parts[0])
		if err != nil {
			return nil, malformed(stashFormat, "stash id", rd, raw, err)
		}
		index, err := parseStashSelector(parts[1])
		if err != nil {
			return nil, malformed(stashFormat, "stash selector", rd, raw, err)
		}
		out = append(out, StashEntry{Index: index, ID: id, Message: parts[2]})
	}
}

// parseStashSelector decodes "stash@{N}".
func parseStashSelector(s string) (int, error) {
	inner, ok := strings.CutPrefix(s, "stash@{")
	if !ok || !strings.HasSuffix(inner, "}") {
		return 0, fmt.Errorf("unexpected stash selector %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(inner, "}"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("unexpected stash selector %q", s)
	}
	return n, nil
}

func stashRef(index int) string {
	return "stash@{" + strconv.Itoa(index) + "}"
}
