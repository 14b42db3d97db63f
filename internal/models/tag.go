package models

import (
	"fmt"
	"strings"
)

// TagDelimiter separates group from name in the serialized tag form.
// Groups may never contain it (ValidTagGroup); names may, because decoding
// splits on the first occurrence only.
const TagDelimiter = ":"

// Tag is a (group, name) pair. An empty group is the default namespace.
type Tag struct {
	Group string `json:"group"`
	Name  string `json:"name"`
}

// NewTag builds a tag from a raw "group:name" string, or "name" for the
// default namespace.
func NewTag(raw string) Tag {
	t, err := DecodeTag(raw)
	if err != nil {
		return Tag{Name: raw}
	}
	return t
}

// Encode serializes the tag to its stored-field form "group:name".
// Decode(Encode(t)) == t for every tag whose group passes ValidTagGroup.
func (t Tag) Encode() string {
	return t.Group + TagDelimiter + t.Name
}

func (t Tag) String() string {
	return t.Encode()
}

// DecodeTag parses the stored-field form back into a tag. The first
// delimiter wins, so names containing the delimiter survive a round trip.
func DecodeTag(s string) (Tag, error) {
	group, name, ok := strings.Cut(s, TagDelimiter)
	if !ok {
		return Tag{}, fmt.Errorf("malformed tag %q: missing delimiter", s)
	}
	if !ValidTagGroup(group) {
		return Tag{}, fmt.Errorf("malformed tag %q: invalid group", s)
	}
	return Tag{Group: group, Name: name}, nil
}

// ValidTagGroup reports whether group is safe to embed in an index field
// name: letters, digits, underscore and hyphen only. The empty group (the
// default namespace) is valid.
func ValidTagGroup(group string) bool {
	for _, r := range group {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// MakeTags builds a tag slice from raw "group:name" strings.
func MakeTags(raw ...string) []Tag {
	tags := make([]Tag, 0, len(raw))
	for _, r := range raw {
		tags = append(tags, NewTag(r))
	}
	return tags
}

// tagsEqual compares two tag slices element-wise, treating nil and empty as
// distinct only when exactly one side is nil.
func tagsEqual(a, b []Tag) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
