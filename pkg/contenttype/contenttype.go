// Package contenttype parses, classifies and resolves the content type of interaction
// bodies and message payloads.
package contenttype

import (
	"mime"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	JSON        = "application/json"
	XML         = "application/xml"
	Text        = "text/plain"
	HTML        = "text/html"
	OctetStream = "application/octet-stream"
)

var ErrContentTypeUnresolved = errors.New("content type could not be resolved")

// ContentType is a parsed media type.
type ContentType struct {
	MainType   string
	SubType    string
	Attributes map[string]string
	Suffix     string
}

// Parse parses a Content-Type value such as `application/vnd.api+json; charset=utf-8`.
func Parse(value string) (ContentType, error) {
	mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(value))
	if err != nil {
		return ContentType{}, errors.Wrapf(err, "unable to parse content type %q", value)
	}

	parts := strings.SplitN(mediaType, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ContentType{}, errors.Errorf("unable to parse content type %q, no sub-type", value)
	}

	ct := ContentType{MainType: parts[0], SubType: parts[1]}
	if plus := strings.LastIndexByte(ct.SubType, '+'); plus >= 0 {
		ct.Suffix = ct.SubType[plus+1:]
	}
	if len(params) > 0 {
		ct.Attributes = params
	}
	return ct, nil
}

// MustParse is like Parse but panics on error.
func MustParse(value string) ContentType {
	ct, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return ct
}

// BaseType returns the media type without attributes.
func (c ContentType) BaseType() string {
	return c.MainType + "/" + c.SubType
}

func (c ContentType) String() string {
	if len(c.Attributes) == 0 {
		return c.BaseType()
	}
	return mime.FormatMediaType(c.BaseType(), c.Attributes)
}

func (c ContentType) IsUnknown() bool {
	return c.MainType == "" || c.BaseType() == OctetStream
}

func (c ContentType) IsJSON() bool {
	return c.MainType == "application" && (c.SubType == "json" || c.Suffix == "json" ||
		strings.HasSuffix(c.SubType, "-json"))
}

func (c ContentType) IsXML() bool {
	return (c.MainType == "application" || c.MainType == "text") && (c.SubType == "xml" || c.Suffix == "xml")
}

// IsText reports whether bodies of this type are human readable text.
func (c ContentType) IsText() bool {
	if c.MainType == "text" || c.IsJSON() || c.IsXML() {
		return true
	}
	if c.MainType == "application" {
		switch c.SubType {
		case "javascript", "x-www-form-urlencoded", "graphql", "yaml", "x-yaml":
			return true
		}
	}
	return false
}

func (c ContentType) IsBinary() bool {
	return !c.IsText()
}

// Equivalent compares base types, ignoring attributes.
func (c ContentType) Equivalent(other ContentType) bool {
	return strings.EqualFold(c.BaseType(), other.BaseType())
}

func (c ContentType) Equal(other ContentType) bool {
	if c.MainType != other.MainType || c.SubType != other.SubType || len(c.Attributes) != len(other.Attributes) {
		return false
	}
	for k, v := range c.Attributes {
		if other.Attributes[k] != v {
			return false
		}
	}
	return true
}

// headerNames is the lookup order used when several keys match case-insensitively.
var headerNames = []string{"Content-Type", "content-type", "contentType"}

// HeaderValue returns the content type entry of a header or metadata map. Keys are
// compared case-insensitively against `Content-Type` and `contentType`. When more than one
// key matches, `Content-Type` wins over `content-type`, which wins over `contentType`;
// any other spelling is taken in sorted key order.
func HeaderValue(headers map[string][]string) (string, bool) {
	for _, name := range headerNames {
		if values, ok := headers[name]; ok && len(values) > 0 {
			return values[0], true
		}
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if isContentTypeKey(k) && len(headers[k]) > 0 {
			return headers[k][0], true
		}
	}
	return "", false
}

func isContentTypeKey(key string) bool {
	return strings.EqualFold(key, "content-type") || strings.EqualFold(key, "contenttype")
}

// FromHeaders parses the content type entry of a header or metadata map.
func FromHeaders(headers map[string][]string) (ContentType, bool) {
	value, ok := HeaderValue(headers)
	if !ok {
		return ContentType{}, false
	}
	ct, err := Parse(value)
	if err != nil {
		return ContentType{}, false
	}
	return ct, true
}

// Resolve determines the effective content type of a body. An explicitly declared content
// type wins, then the header/metadata entry, then sniffing of the body bytes. When nothing
// is conclusive the result is application/octet-stream together with
// ErrContentTypeUnresolved.
func Resolve(explicit *ContentType, headers map[string][]string, body []byte) (ContentType, error) {
	if explicit != nil && explicit.MainType != "" {
		return *explicit, nil
	}
	if ct, ok := FromHeaders(headers); ok {
		return ct, nil
	}
	return Detect(body)
}
