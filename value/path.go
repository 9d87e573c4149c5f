package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Path: either an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path is a parsed dotted/indexed lookup such as `user.roles[0].name`.
type Path []Segment

// ParsePath parses `a.b[0].c` and `a["key"]` forms.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("value: empty path")
	}
	var path Path
	i := 0
	expectName := true
	for i < len(s) {
		c := s[i]
		switch {
		case c == '.':
			if expectName {
				return nil, fmt.Errorf("value: unexpected '.' at %d in %q", i, s)
			}
			expectName = true
			i++
		case c == '[':
			if expectName && len(path) == 0 {
				return nil, fmt.Errorf("value: path %q must start with a name", s)
			}
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("value: unclosed '[' in %q", s)
			}
			inner := strings.TrimSpace(s[i+1 : i+end])
			seg, err := parseBracket(inner)
			if err != nil {
				return nil, fmt.Errorf("value: %w in %q", err, s)
			}
			path = append(path, seg)
			expectName = false
			i += end + 1
		default:
			if !expectName {
				return nil, fmt.Errorf("value: unexpected %q at %d in %q", c, i, s)
			}
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' {
				j++
			}
			name := strings.TrimSpace(s[i:j])
			if !IsIdent(name) {
				return nil, fmt.Errorf("value: invalid name %q in %q", name, s)
			}
			path = append(path, Segment{Key: name})
			expectName = false
			i = j
		}
	}
	if expectName {
		return nil, fmt.Errorf("value: path %q ends with '.'", s)
	}
	return path, nil
}

// MustParsePath panics on malformed paths.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseBracket(inner string) (Segment, error) {
	if n := len(inner); n >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[n-1] == inner[0] {
		return Segment{Key: inner[1 : n-1]}, nil
	}
	idx, err := strconv.Atoi(inner)
	if err != nil || idx < 0 {
		return Segment{}, fmt.Errorf("invalid index %q", inner)
	}
	return Segment{Index: idx, IsIndex: true}, nil
}

// IsIdent reports whether s is a valid bare path name.
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		case r > 127:
		default:
			return false
		}
	}
	return true
}

func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		switch {
		case seg.IsIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		case IsIdent(seg.Key):
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Key)
		default:
			b.WriteString(`["`)
			b.WriteString(seg.Key)
			b.WriteString(`"]`)
		}
	}
	return b.String()
}

// Head is the first key of the path.
func (p Path) Head() string {
	if len(p) == 0 || p[0].IsIndex {
		return ""
	}
	return p[0].Key
}

// Last is the final object key of the path, ignoring trailing indexes.
func (p Path) Last() string {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].IsIndex {
			return p[i].Key
		}
	}
	return ""
}

// Lookup walks path starting at v. The `length` and `size` keys on an Array resolve to
// its length.
func (v Value) Lookup(path Path) (Value, bool) {
	cur := v
	for _, seg := range path {
		if seg.IsIndex {
			next, ok := cur.Index(seg.Index)
			if !ok {
				return Value{}, false
			}
			cur = next
			continue
		}
		switch cur.kind {
		case KindObject:
			next, ok := cur.obj[seg.Key]
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindArray:
			if seg.Key == "length" || seg.Key == "size" {
				cur = Int(int64(len(cur.arr)))
				continue
			}
			return Value{}, false
		default:
			return Value{}, false
		}
	}
	return cur, true
}
