// Package uniqueid formats and parses identifiers of nodes in the test tree.
//
// An ID is a list of typed segments rendered as
//
//	[engine:tinst]/[class:pkg.CalculatorTests]/[nested-class:Inner]/[method:adds]
//
// Characters with a meaning in the format ("[", "]", "/", ":", "%") are
// percent-encoded inside segment types and values, so Parse(Format(id))
// always equals id.
package uniqueid

import (
	"fmt"
	"strconv"
	"strings"
)

// Common segment types.
const (
	TypeEngine      = "engine"
	TypeClass       = "class"
	TypeNestedClass = "nested-class"
	TypeMethod      = "method"
)

// Segment is one typed element of an ID.
type Segment struct {
	Type  string
	Value string
}

// ID identifies a node in the test tree.
type ID struct {
	segments []Segment
}

// ForEngine returns the root ID of an engine.
func ForEngine(engineID string) ID {
	return ID{segments: []Segment{{Type: TypeEngine, Value: engineID}}}
}

// Append returns a new ID with one more segment.
func (id ID) Append(segmentType, value string) ID {
	segments := make([]Segment, len(id.segments), len(id.segments)+1)
	copy(segments, id.segments)
	return ID{segments: append(segments, Segment{Type: segmentType, Value: value})}
}

// Segments returns a copy of the ID's segments.
func (id ID) Segments() []Segment {
	out := make([]Segment, len(id.segments))
	copy(out, id.segments)
	return out
}

// Last returns the final segment. The zero Segment is returned for an empty ID.
func (id ID) Last() Segment {
	if len(id.segments) == 0 {
		return Segment{}
	}
	return id.segments[len(id.segments)-1]
}

// Parent returns the ID without its final segment.
func (id ID) Parent() ID {
	if len(id.segments) == 0 {
		return id
	}
	return ID{segments: id.Segments()[:len(id.segments)-1]}
}

// Equal reports whether two IDs have the same segments.
func (id ID) Equal(other ID) bool {
	if len(id.segments) != len(other.segments) {
		return false
	}
	for i := range id.segments {
		if id.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// IsZero reports whether id has no segments.
func (id ID) IsZero() bool {
	return len(id.segments) == 0
}

// String formats the ID.
func (id ID) String() string {
	return Format(id)
}

// Format renders id in its textual form.
func Format(id ID) string {
	var b strings.Builder
	for i, s := range id.segments {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteByte('[')
		b.WriteString(encode(s.Type))
		b.WriteByte(':')
		b.WriteString(encode(s.Value))
		b.WriteByte(']')
	}
	return b.String()
}

// Parse reads an ID in the form produced by Format. The empty string is the
// zero ID.
func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, nil
	}

	var segments []Segment
	for i, raw := range strings.Split(s, "/") {
		if len(raw) < 3 || raw[0] != '[' || raw[len(raw)-1] != ']' {
			return ID{}, fmt.Errorf("segment %d of %q is not of the form [type:value]", i, s)
		}
		body := raw[1 : len(raw)-1]
		typ, value, ok := strings.Cut(body, ":")
		if !ok {
			return ID{}, fmt.Errorf("segment %d of %q has no type separator", i, s)
		}
		decodedType, err := decode(typ)
		if err != nil {
			return ID{}, fmt.Errorf("segment %d type: %w", i, err)
		}
		decodedValue, err := decode(value)
		if err != nil {
			return ID{}, fmt.Errorf("segment %d value: %w", i, err)
		}
		segments = append(segments, Segment{Type: decodedType, Value: decodedValue})
	}
	return ID{segments: segments}, nil
}

const reserved = "[]/:%"

func encode(s string) string {
	if !strings.ContainsAny(s, reserved) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(reserved, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func decode(s string) (string, error) {
	if !strings.Contains(s, "%") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated escape in %q", s)
		}
		n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("invalid escape %q in %q", s[i:i+3], s)
		}
		b.WriteByte(byte(n))
		i += 2
	}
	return b.String(), nil
}
