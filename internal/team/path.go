package team

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is a team's materialized position in the hierarchy: the ids of its
// ancestors from the root down, ending with the team's own id. It is stored
// and transmitted as a dot-joined string, e.g. "1.7.12".
type Path []int64

// ParsePath decodes a dot-joined path string.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}

	segments := strings.Split(s, ".")
	p := make(Path, len(segments))
	for i, seg := range segments {
		id, err := strconv.ParseInt(seg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q: %w", seg, err)
		}
		p[i] = id
	}

	return p, nil
}

// String renders the path in its dot-joined storage form.
func (p Path) String() string {
	segments := make([]string, len(p))
	for i, id := range p {
		segments[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(segments, ".")
}

// Child returns a new path extending p with the given id. The receiver is
// never mutated and the result never shares its backing array.
func (p Path) Child(id int64) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = id
	return child
}

// HasPrefix reports whether p starts with prefix. A path is a prefix of
// itself.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, id := range prefix {
		if p[i] != id {
			return false
		}
	}
	return true
}

// Rebase returns a copy of p with oldPrefix swapped for newPrefix. The
// caller must ensure p has oldPrefix.
func (p Path) Rebase(oldPrefix, newPrefix Path) Path {
	out := make(Path, 0, len(newPrefix)+len(p)-len(oldPrefix))
	out = append(out, newPrefix...)
	out = append(out, p[len(oldPrefix):]...)
	return out
}
