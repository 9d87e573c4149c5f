package ast

import (
	"fmt"
	"strings"
)

// ParseText splits SQL text with #{path} and #{path,jdbcType=X} markers into Static
// and Placeholder nodes.
func ParseText(s string) ([]Node, error) {
	var out []Node
	for {
		start := strings.Index(s, "#{")
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unclosed #{ in %q", s)
		}
		end += start

		if text := s[:start]; strings.TrimSpace(text) != "" {
			out = append(out, NewStatic(text))
		}
		p, err := parseMarker(s[start+2 : end])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
		s = s[end+1:]
	}
	if strings.TrimSpace(s) != "" {
		out = append(out, NewStatic(s))
	}
	return out, nil
}

func parseMarker(inner string) (*Placeholder, error) {
	parts := strings.Split(inner, ",")
	p, err := NewPlaceholder(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, err
	}
	for _, opt := range parts[1:] {
		k, v, ok := strings.Cut(opt, "=")
		if !ok {
			return nil, fmt.Errorf("malformed parameter option %q", strings.TrimSpace(opt))
		}
		if strings.TrimSpace(k) == "jdbcType" {
			p.JDBCType = strings.TrimSpace(v)
		}
	}
	return p, nil
}
