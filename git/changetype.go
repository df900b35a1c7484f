package git

// ChangeType is the single-character change code used by status and diff
// output.
type ChangeType int

const (
	ChangeInvalid ChangeType = iota
	ChangeUnmodified
	ChangeAdded
	ChangeCopied
	ChangeDeleted
	ChangeModified
	ChangeRenamed
	ChangeTypeChanged
	ChangeUnmerged
	ChangeUntracked
	ChangeIgnored
)

// changeCodes is the bidirectional code table. Index by ChangeType.
var changeCodes = [...]struct {
	code byte
	name string
}{
	ChangeInvalid:     {'X', "invalid"},
	ChangeUnmodified:  {' ', "unmodified"},
	ChangeAdded:       {'A', "added"},
	ChangeCopied:      {'C', "copied"},
	ChangeDeleted:     {'D', "deleted"},
	ChangeModified:    {'M', "modified"},
	ChangeRenamed:     {'R', "renamed"},
	ChangeTypeChanged: {'T', "type changed"},
	ChangeUnmerged:    {'U', "unmerged"},
	ChangeUntracked:   {'?', "untracked"},
	ChangeIgnored:     {'!', "ignored"},
}

var changeByCode = func() [256]ChangeType {
	var table [256]ChangeType
	for ct, c := range changeCodes {
		if ChangeType(ct) != ChangeInvalid {
			table[c.code] = ChangeType(ct)
		}
	}
	return table
}()

// ParseChangeType maps a code to its ChangeType. Unknown codes yield
// ChangeInvalid.
func ParseChangeType(code byte) ChangeType {
	return changeByCode[code]
}

// parseStatusCode is ParseChangeType with porcelain v2's '.' accepted for an
// unmodified side.
func parseStatusCode(code byte) ChangeType {
	if code == '.' {
		return ChangeUnmodified
	}
	return ParseChangeType(code)
}

// Code returns the single-character code. ChangeInvalid returns 'X'.
func (c ChangeType) Code() byte {
	if c < 0 || int(c) >= len(changeCodes) {
		return changeCodes[ChangeInvalid].code
	}
	return changeCodes[c].code
}

func (c ChangeType) String() string {
	if c < 0 || int(c) >= len(changeCodes) {
		return changeCodes[ChangeInvalid].name
	}
	return changeCodes[c].name
}
