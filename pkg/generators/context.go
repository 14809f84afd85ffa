package generators

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Context is the runtime information generators draw on. A nil Context is valid and
// behaves as an empty one using the default random source.
type Context struct {
	// ProviderState holds the resolved provider state parameters.
	ProviderState map[string]interface{}
	// MockServerURL is the base URL of the running mock server, if any.
	MockServerURL string
	// RequestPath is the path of the request being generated, for cross-field generators.
	RequestPath string
	Random      *Source
	Now         func() time.Time
}

func (c *Context) random() *Source {
	if c == nil || c.Random == nil {
		return DefaultSource()
	}
	return c.Random
}

func (c *Context) providerState() map[string]interface{} {
	if c == nil {
		return nil
	}
	return c.ProviderState
}

func (c *Context) now() time.Time {
	if c == nil || c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

func evaluateExpression(expression string, params map[string]interface{}) (interface{}, error) {
	if !strings.Contains(expression, "${") {
		return lookupParam(expression, params)
	}

	// a single placeholder keeps the type of the parameter
	if m := placeholder.FindStringSubmatch(expression); m != nil && m[0] == expression {
		return lookupParam(m[1], params)
	}

	var err error
	result := placeholder.ReplaceAllStringFunc(expression, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		value, lookupErr := lookupParam(name, params)
		if lookupErr != nil {
			if err == nil {
				err = lookupErr
			}
			return match
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func lookupParam(name string, params map[string]interface{}) (interface{}, error) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "$") {
		value, err := jsonpath.Get(name, params)
		if err != nil || value == nil {
			return nil, errors.Wrapf(ErrMissingProviderStateParam, "expression %q", name)
		}
		return value, nil
	}
	value, ok := params[name]
	if !ok {
		return nil, errors.Wrapf(ErrMissingProviderStateParam, "parameter %q", name)
	}
	return value, nil
}

func coerce(value interface{}, dataType DataType) (interface{}, error) {
	text := fmt.Sprintf("%v", value)
	switch dataType {
	case DataTypeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return text, nil
	case DataTypeInteger:
		if n, ok := value.(json.Number); ok {
			text = n.String()
		}
		d, err := decimal.NewFromString(text)
		if err != nil || !d.IsInteger() {
			return nil, errors.Errorf("provider state value %q is not an integer", text)
		}
		return d.IntPart(), nil
	case DataTypeDecimal:
		d, err := decimal.NewFromString(text)
		if err != nil {
			return nil, errors.Errorf("provider state value %q is not a decimal", text)
		}
		return json.Number(d.String()), nil
	case DataTypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Errorf("provider state value %q is not a float", text)
		}
		return f, nil
	case DataTypeBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, errors.Errorf("provider state value %q is not a boolean", text)
		}
		return b, nil
	default:
		return value, nil
	}
}

var timeOffset = regexp.MustCompile(`^([+-])\s*(\d+)\s*(second|minute|hour|day|week|month|year)s?$`)

// applyTimeExpression supports `now`, `today`, `tomorrow`, `yesterday` and offsets such as
// `+ 2 days` or `- 1 hour`.
func applyTimeExpression(base time.Time, expression string) (time.Time, error) {
	expression = strings.ToLower(strings.TrimSpace(expression))
	switch expression {
	case "", "now", "today":
		return base, nil
	case "tomorrow":
		return base.AddDate(0, 0, 1), nil
	case "yesterday":
		return base.AddDate(0, 0, -1), nil
	}

	m := timeOffset.FindStringSubmatch(expression)
	if m == nil {
		return base, errors.Errorf("unsupported date/time expression %q", expression)
	}
	n, _ := strconv.Atoi(m[2])
	if m[1] == "-" {
		n = -n
	}
	switch m[3] {
	case "second":
		return base.Add(time.Duration(n) * time.Second), nil
	case "minute":
		return base.Add(time.Duration(n) * time.Minute), nil
	case "hour":
		return base.Add(time.Duration(n) * time.Hour), nil
	case "day":
		return base.AddDate(0, 0, n), nil
	case "week":
		return base.AddDate(0, 0, 7*n), nil
	case "month":
		return base.AddDate(0, n, 0), nil
	default:
		return base.AddDate(n, 0, 0), nil
	}
}
