package ffopts

import (
	"fmt"
	"strings"
)

// Category namespaces engine options. The numbering matches the decoder's own
// option categories so values can cross the native boundary unchanged.
type Category int

const (
	CategoryFormat Category = 1
	CategoryCodec  Category = 2
	CategorySws    Category = 3
	CategoryPlayer Category = 4
	CategorySwr    Category = 5
)

var categories = []Category{
	CategoryFormat,
	CategoryCodec,
	CategorySws,
	CategoryPlayer,
	CategorySwr,
}

// Categories returns every defined category in enumeration order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Valid reports whether c is one of the five defined categories.
func (c Category) Valid() bool {
	return c >= CategoryFormat && c <= CategorySwr
}

func (c Category) String() string {
	switch c {
	case CategoryFormat:
		return "format"
	case CategoryCodec:
		return "codec"
	case CategorySws:
		return "sws"
	case CategoryPlayer:
		return "player"
	case CategorySwr:
		return "swr"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// ParseCategory converts a category name into its Category. Matching is case
// insensitive and ignores surrounding whitespace.
func ParseCategory(name string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "format":
		return CategoryFormat, nil
	case "codec":
		return CategoryCodec, nil
	case "sws":
		return CategorySws, nil
	case "player":
		return CategoryPlayer, nil
	case "swr":
		return CategorySwr, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, name)
	}
}

// ParsePath splits a "category.key" path into its parts. Keys may contain
// further dots.
func ParsePath(path string) (Category, string, error) {
	name, key, ok := strings.Cut(path, ".")
	if !ok || key == "" {
		return 0, "", fmt.Errorf("%w: path %q", ErrEmptyKey, path)
	}
	category, err := ParseCategory(name)
	if err != nil {
		return 0, "", err
	}
	return category, key, nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Discard enumerates the frame discard levels accepted by the codec
// skip_loop_filter and skip_frame options.
type Discard int64

const (
	DiscardNone    Discard = -16 // discard nothing
	DiscardDefault Discard = 0   // discard useless packets like 0 size packets
	DiscardNonRef  Discard = 8   // discard all non reference frames
	DiscardBidir   Discard = 16  // discard all bidirectional frames
	DiscardNonKey  Discard = 32  // discard all frames except keyframes
	DiscardAll     Discard = 48  // discard all frames
)
