// Package timefmt formats and parses the Joda style date/time patterns recorded in
// contract files (`yyyy-MM-dd'T'HH:mm:ss.SSSXXX`).
package timefmt

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vjeantet/jodaTime"
)

const (
	DefaultDate     = "yyyy-MM-dd"
	DefaultTime     = "HH:mm:ss"
	DefaultDateTime = "yyyy-MM-dd'T'HH:mm:ss"
)

var ErrUnsupportedPattern = errors.New("unsupported date/time pattern")

// Format renders t using pattern.
func Format(pattern string, t time.Time) (string, error) {
	if err := validate(pattern); err != nil {
		return "", err
	}
	return jodaTime.Format(pattern, t), nil
}

// Parse reads value using pattern.
func Parse(pattern, value string) (time.Time, error) {
	if err := validate(pattern); err != nil {
		return time.Time{}, err
	}
	t, err := jodaTime.Parse(pattern, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "unable to parse %q with pattern %q", value, pattern)
	}
	return t, nil
}

// validate rejects empty patterns and unterminated quoted literals.
func validate(pattern string) error {
	if pattern == "" {
		return errors.Wrap(ErrUnsupportedPattern, "empty pattern")
	}
	if strings.Count(pattern, "'")%2 != 0 {
		return errors.Wrapf(ErrUnsupportedPattern, "unterminated quote in %q", pattern)
	}
	return nil
}
