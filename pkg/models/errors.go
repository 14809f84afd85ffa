package models

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedJSON          = errors.New("malformed JSON")
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrUnsupportedSpecVersion = errors.New("unsupported specification version")
	ErrUnknownInteractionType = errors.New("unknown interaction type")
)

// AggregateDecodeError collects the failures of sibling elements so that none of them
// is dropped.
type AggregateDecodeError struct {
	Context string
	Errors  []error
}

func (e *AggregateDecodeError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("%s - %s", e.Context, strings.Join(messages, ", "))
}

func (e *AggregateDecodeError) Unwrap() []error {
	return e.Errors
}

func aggregate(context string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateDecodeError{Context: context, Errors: errs}
}
