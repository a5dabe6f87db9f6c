package dogstatsd

import (
	"strings"
)

// Tag is a single name:value pair. A Tag with an empty Value renders as a
// bare tag, ie "debug" rather than "debug:".
type Tag struct {
	Name  string
	Value string
}

type tagsKind byte

const (
	tagsEmpty tagsKind = iota // Must be zero so the Tags zero value is empty
	tagsKeyed
	tagsRaw
)

// Tags represents the tag section of a wire line. It has three forms:
// 1. empty. No tag section is emitted at all.
// 2. keyed. An ordered list of Tag pairs, rendered "n1:v1,n2:v2" in the order given.
// 3. raw. A caller supplied string, emitted verbatim.
// Names and values may contain characters invalid for a particular backend.
// Backends are expected to handle them appropriately. Different backends may
// have different sets of valid characters so it is undesirable to have
// restrictions on the input side.
type Tags struct {
	kind  tagsKind
	pairs []Tag
	raw   string
}

// NoTags is the empty tag section.
var NoTags = Tags{}

// KeyedTags builds an ordered Tags from pairs. No pairs means no tag section.
func KeyedTags(pairs ...Tag) Tags {
	if len(pairs) == 0 {
		return Tags{}
	}
	return Tags{kind: tagsKeyed, pairs: pairs}
}

// RawTags wraps an already rendered tag section. The string is emitted
// verbatim, an empty string means no tag section.
func RawTags(s string) Tags {
	if s == "" {
		return Tags{}
	}
	return Tags{kind: tagsRaw, raw: s}
}

// Empty returns true if there is no tag section.
func (tags Tags) Empty() bool {
	return tags.kind == tagsEmpty
}

// AppendWire appends the rendered tag section to b, without the leading "|#".
func (tags Tags) AppendWire(b []byte) []byte {
	switch tags.kind {
	case tagsKeyed:
		for i, tag := range tags.pairs {
			if i > 0 {
				b = append(b, ',')
			}
			b = append(b, tag.Name...)
			if tag.Value != "" {
				b = append(b, ':')
				b = append(b, tag.Value...)
			}
		}
	case tagsRaw:
		b = append(b, tags.raw...)
	}
	return b
}

// String returns the rendered tag section.
func (tags Tags) String() string {
	return string(tags.AppendWire(nil))
}

// Concat returns a Tags which renders the receiver followed by additional.
// Two keyed sections stay keyed, any other non-empty combination degrades to
// the raw form.
func (tags Tags) Concat(additional Tags) Tags {
	switch {
	case additional.kind == tagsEmpty:
		return tags
	case tags.kind == tagsEmpty:
		return additional
	case tags.kind == tagsKeyed && additional.kind == tagsKeyed:
		t := make([]Tag, 0, len(tags.pairs)+len(additional.pairs))
		t = append(t, tags.pairs...)
		t = append(t, additional.pairs...)
		return Tags{kind: tagsKeyed, pairs: t}
	}
	return Tags{kind: tagsRaw, raw: tags.String() + "," + additional.String()}
}

// Split returns the individual tags as a list, for APIs which want an array
// rather than a wire rendering. Raw sections are split on commas, surrounding
// space is trimmed and empty elements are dropped.
func (tags Tags) Split() []string {
	switch tags.kind {
	case tagsKeyed:
		out := make([]string, 0, len(tags.pairs))
		for _, tag := range tags.pairs {
			if tag.Value == "" {
				out = append(out, tag.Name)
			} else {
				out = append(out, tag.Name+":"+tag.Value)
			}
		}
		return out
	case tagsRaw:
		parts := strings.Split(tags.raw, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}
