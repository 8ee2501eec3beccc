// Package account defines how a Twitter account is identified, either by its
// numeric id or by its screen name.
package account

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags which representation an Identifier holds.
type Kind int

const (
	KindID Kind = iota + 1
	KindScreenName
)

func (k Kind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindScreenName:
		return "screen_name"
	default:
		return "invalid"
	}
}

// Identifier names an account. Two identifiers are equal only when they have
// the same kind and the same value, so ID(12) and ScreenName("12") differ.
// The zero value is invalid. Identifier is comparable and safe as a map key.
type Identifier struct {
	kind       Kind
	id         int64
	screenName string
}

var screenNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

// ErrInvalidIdentifier is returned by Parse for input that names no account.
var ErrInvalidIdentifier = errors.New("invalid account identifier")

// ID returns an identifier for a numeric account id.
func ID(id int64) Identifier {
	return Identifier{kind: KindID, id: id}
}

// ScreenName returns an identifier for a screen name. A leading @ is dropped.
func ScreenName(name string) Identifier {
	return Identifier{kind: KindScreenName, screenName: strings.TrimPrefix(strings.TrimSpace(name), "@")}
}

// Parse turns user input into an Identifier. Bare digits become an id, an
// "id:" prefix forces an id, anything else must be a valid screen name.
func Parse(input string) (Identifier, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Identifier{}, fmt.Errorf("%w: empty input", ErrInvalidIdentifier)
	}

	if rest, ok := strings.CutPrefix(strings.ToLower(s), "id:"); ok {
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || n <= 0 {
			return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, input)
		}
		return ID(n), nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, input)
		}
		return ID(n), nil
	}

	name := strings.TrimPrefix(s, "@")
	if !screenNamePattern.MatchString(name) {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, input)
	}
	return ScreenName(name), nil
}

// Kind reports which representation the identifier holds.
func (i Identifier) Kind() Kind { return i.kind }

// IsValid reports whether the identifier was built by ID, ScreenName or Parse.
func (i Identifier) IsValid() bool {
	switch i.kind {
	case KindID:
		return true
	case KindScreenName:
		return i.screenName != ""
	default:
		return false
	}
}

// NumericID returns the id and true for id identifiers.
func (i Identifier) NumericID() (int64, bool) {
	return i.id, i.kind == KindID
}

// Name returns the screen name and true for screen-name identifiers.
func (i Identifier) Name() (string, bool) {
	return i.screenName, i.kind == KindScreenName
}

// Apply sets the request parameter matching the identifier's kind. user_id and
// screen_name are mutually exclusive, so the other one is removed.
func (i Identifier) Apply(params url.Values) {
	switch i.kind {
	case KindID:
		params.Del("screen_name")
		params.Set("user_id", strconv.FormatInt(i.id, 10))
	case KindScreenName:
		params.Del("user_id")
		params.Set("screen_name", i.screenName)
	}
}

func (i Identifier) String() string {
	switch i.kind {
	case KindID:
		return strconv.FormatInt(i.id, 10)
	case KindScreenName:
		return "@" + i.screenName
	default:
		return "<invalid>"
	}
}

// MarshalText encodes ids as digits and screen names with a leading @.
func (i Identifier) MarshalText() ([]byte, error) {
	if !i.IsValid() {
		return nil, ErrInvalidIdentifier
	}
	return []byte(i.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (i *Identifier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// FromIDs converts the raw ids of an API page.
func FromIDs(ids []int64) []Identifier {
	out := make([]Identifier, len(ids))
	for n, id := range ids {
		out[n] = ID(id)
	}
	return out
}
