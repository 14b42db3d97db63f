package models

import "testing"

func TestTagEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
	}{
		{"plain", Tag{Group: "color", Name: "red"}},
		{"default namespace", Tag{Group: "", Name: "featured"}},
		{"name with delimiter", Tag{Group: "path", Name: "a:b:c"}},
		{"hyphen and digits in group", Tag{Group: "size-2", Name: "large"}},
		{"empty name", Tag{Group: "color", Name: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeTag(tt.tag.Encode())
			if err != nil {
				t.Fatal(err)
			}
			if decoded != tt.tag {
				t.Errorf("round trip: got %+v, want %+v", decoded, tt.tag)
			}
		})
	}
}

func TestDecodeTagRejectsBadInput(t *testing.T) {
	if _, err := DecodeTag("nodelimiter"); err == nil {
		t.Error("expected error for missing delimiter")
	}
	if _, err := DecodeTag("bad group:name"); err == nil {
		t.Error("expected error for invalid group")
	}
}

func TestNewTag(t *testing.T) {
	if got := NewTag("color:red"); got != (Tag{Group: "color", Name: "red"}) {
		t.Errorf("NewTag(color:red) = %+v", got)
	}
	// no delimiter falls back to the default namespace
	if got := NewTag("featured"); got != (Tag{Name: "featured"}) {
		t.Errorf("NewTag(featured) = %+v", got)
	}
}

func TestValidTagGroup(t *testing.T) {
	for _, group := range []string{"", "color", "Size_2", "a-b"} {
		if !ValidTagGroup(group) {
			t.Errorf("ValidTagGroup(%q) = false, want true", group)
		}
	}
	for _, group := range []string{"has space", "colon:", "ünïcode", "a/b"} {
		if ValidTagGroup(group) {
			t.Errorf("ValidTagGroup(%q) = true, want false", group)
		}
	}
}

func TestMakeTags(t *testing.T) {
	tags := MakeTags("color:red", "size:large")
	if len(tags) != 2 || tags[0].Group != "color" || tags[1].Name != "large" {
		t.Errorf("MakeTags = %+v", tags)
	}
}
