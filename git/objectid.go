package git

import (
	"encoding/hex"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
)

// IDLength is the number of hex characters in a textual object id.
const IDLength = 40

// ObjectID identifies a git object. It shares the 20-byte layout of
// plumbing.Hash and is compared with ==.
type ObjectID [20]byte

// ZeroID represents "no object", as reported for an unborn branch or a
// missing side of a diff.
var ZeroID ObjectID

// ParseObjectID parses exactly IDLength hex characters.
func ParseObjectID(s string) (ObjectID, error) {
	return parseObjectID([]byte(s))
}

func parseObjectID(b []byte) (ObjectID, error) {
	var id ObjectID
	if len(b) != IDLength {
		return id, fmt.Errorf("object id must be %d hex characters, got %d", IDLength, len(b))
	}
	if _, err := hex.Decode(id[:], b); err != nil {
		return ZeroID, fmt.Errorf("invalid object id %q: %w", b, err)
	}
	return id, nil
}

// FromHash converts a go-git hash.
func FromHash(h plumbing.Hash) ObjectID {
	return ObjectID(h)
}

// Hash converts the id to a go-git hash.
func (id ObjectID) Hash() plumbing.Hash {
	return plumbing.Hash(id)
}

// IsZero reports whether id is ZeroID.
func (id ObjectID) IsZero() bool {
	return id == ZeroID
}

// String returns the 40 character hex form.
func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first seven hex characters.
func (id ObjectID) Short() string {
	return id.String()[:7]
}
