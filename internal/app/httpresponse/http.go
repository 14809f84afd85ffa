package httpresponse

import (
	"fmt"

	"github.com/form3tech-oss/pact-core/pkg/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// APIError is the body of every non-2xx admin API response.
type APIError struct {
	ErrorMessage string   `json:"error_message"`
	Errors       []string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	return e.ErrorMessage
}

func Error(error string) *APIError {
	log.Error(error)
	e := &APIError{
		ErrorMessage: error,
	}
	return e
}

func Errorf(error string, a ...interface{}) *APIError {
	return Error(fmt.Sprintf(error, a...))
}

// FromError wraps err with message. Aggregated decode failures are listed one per entry.
func FromError(message string, err error) *APIError {
	e := Errorf("%s. %s", message, err.Error())
	var aggregate *models.AggregateDecodeError
	if errors.As(err, &aggregate) {
		for _, child := range aggregate.Errors {
			e.Errors = append(e.Errors, child.Error())
		}
	}
	return e
}
