// Package validation holds the field rules shared by the request handlers.
// Text is trimmed and NFC-normalized before lengths are counted in runes, so
// a precomposed and a decomposed Hangul syllable count the same.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalid is wrapped by every rule violation.
var ErrInvalid = errors.New("validation failed")

// Field limits.
const (
	TitleMin        = 2
	TitleMax        = 100
	LocationMin     = 2
	LocationMax     = 200
	MaxMembersMin   = 2
	MaxMembersMax   = 100
	AnnouncementMin = 5
	AnnouncementMax = 2000
	MemoMax         = 500
	DescriptionMax  = 2000
	FullNameMax     = 100
	BioMax          = 500
	UsernameMin     = 3
	UsernameMax     = 30
	BankFieldMax    = 100
)

// Stored category keys.
const (
	CategorySocial    = "social"
	CategoryMeeting   = "meeting"
	CategoryHappening = "happening"
	CategoryOther     = "other"
)

var categoryAliases = map[string]string{
	CategorySocial:    CategorySocial,
	CategoryMeeting:   CategoryMeeting,
	CategoryHappening: CategoryHappening,
	CategoryOther:     CategoryOther,
	"모임":              CategorySocial,
	"회의":              CategoryMeeting,
	"행사":              CategoryHappening,
	"기타":              CategoryOther,
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Error describes a single rejected field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...interface{}) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Text trims surrounding whitespace and normalizes to NFC.
func Text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Length counts runes of the normalized text.
func Length(s string) int {
	return utf8.RuneCountInString(Text(s))
}

// Bounded normalizes s and checks its rune length against [min, max].
func Bounded(field, s string, min, max int) (string, error) {
	v := Text(s)
	n := utf8.RuneCountInString(v)
	if n < min {
		return "", invalid(field, "must be at least %d characters", min)
	}
	if n > max {
		return "", invalid(field, "must be at most %d characters", max)
	}
	return v, nil
}

// Title enforces the shared event and announcement title length.
func Title(s string) (string, error) {
	return Bounded("title", s, TitleMin, TitleMax)
}

// Location enforces the event location length.
func Location(s string) (string, error) {
	return Bounded("location", s, LocationMin, LocationMax)
}

// Description is optional free text.
func Description(s string) (string, error) {
	return Bounded("description", s, 0, DescriptionMax)
}

// AnnouncementContent enforces the announcement body length.
func AnnouncementContent(s string) (string, error) {
	return Bounded("content", s, AnnouncementMin, AnnouncementMax)
}

// Memo is the optional note attached to a join request.
func Memo(s string) (string, error) {
	return Bounded("memo", s, 0, MemoMax)
}

// MaxMembers checks the capacity range.
func MaxMembers(n int) error {
	if n < MaxMembersMin || n > MaxMembersMax {
		return invalid("max_members", "must be between %d and %d", MaxMembersMin, MaxMembersMax)
	}
	return nil
}

// FutureDate rejects dates at or before now.
func FutureDate(t, now time.Time) error {
	if !t.After(now) {
		return invalid("event_date", "must be in the future")
	}
	return nil
}

// Category maps an English key or its Korean label to the stored key.
func Category(s string) (string, error) {
	if c, ok := categoryAliases[Text(s)]; ok {
		return c, nil
	}
	return "", invalid("category", "must be one of social, meeting, happening, other")
}

// IsCategory reports whether s is an accepted category or alias.
func IsCategory(s string) bool {
	_, ok := categoryAliases[Text(s)]
	return ok
}

// Username lowercases and checks the handle format.
func Username(s string) (string, error) {
	v := strings.ToLower(Text(s))
	n := utf8.RuneCountInString(v)
	if n < UsernameMin || n > UsernameMax {
		return "", invalid("username", "must be between %d and %d characters", UsernameMin, UsernameMax)
	}
	if !usernamePattern.MatchString(v) {
		return "", invalid("username", "may only contain lowercase letters, digits and underscores")
	}
	return v, nil
}

// Website accepts an empty value or an absolute http(s) URL.
func Website(s string) (string, error) {
	return URL("website", s)
}

// URL is the optional absolute http(s) link rule for any field.
func URL(field, s string) (string, error) {
	v := Text(s)
	if v == "" {
		return "", nil
	}
	u, err := url.Parse(v)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", invalid(field, "must be an http or https URL")
	}
	return v, nil
}
