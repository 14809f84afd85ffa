package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/form3tech-oss/pact-core/pkg/contenttype"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

type BodyState int

const (
	BodyMissing BodyState = iota
	BodyNull
	BodyPresent
)

// ContentTypeHint overrides how a body is written when its content type alone does not
// say whether it is text or binary.
type ContentTypeHint int

const (
	HintDefault ContentTypeHint = iota
	HintText
	HintBinary
)

func (h ContentTypeHint) String() string {
	switch h {
	case HintText:
		return "TEXT"
	case HintBinary:
		return "BINARY"
	}
	return "DEFAULT"
}

func parseHint(s string) ContentTypeHint {
	switch s {
	case "TEXT":
		return HintText
	case "BINARY":
		return HintBinary
	}
	return HintDefault
}

// Body is the payload of a request, response or message. The zero value is a missing
// body.
type Body struct {
	State       BodyState
	Value       []byte
	ContentType *contenttype.ContentType
	Hint        ContentTypeHint
}

func MissingBody() Body {
	return Body{}
}

func NullBody() Body {
	return Body{State: BodyNull}
}

// NewBody returns a present body. ct may be nil when the content type is not known.
func NewBody(value []byte, ct *contenttype.ContentType) Body {
	b := Body{State: BodyPresent, Value: append([]byte{}, value...)}
	if ct != nil {
		c := *ct
		b.ContentType = &c
	}
	return b
}

// JSONBody encodes value as a present application/json body.
func JSONBody(value interface{}) (Body, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return Body{}, err
	}
	ct := contenttype.MustParse(contenttype.JSON)
	return NewBody(data, &ct), nil
}

func TextBody(s string) Body {
	ct := contenttype.MustParse(contenttype.Text)
	return NewBody([]byte(s), &ct)
}

func (b Body) IsPresent() bool {
	return b.State == BodyPresent
}

func (b Body) IsMissing() bool {
	return b.State == BodyMissing
}

// Equal compares bodies structurally. Content types take part only when both bodies
// declare one.
func (b Body) Equal(other Body) bool {
	if b.State != other.State || b.Hint != other.Hint {
		return false
	}
	if b.State != BodyPresent {
		return true
	}
	if !bytes.Equal(b.Value, other.Value) {
		return false
	}
	if b.ContentType != nil && other.ContentType != nil {
		return b.ContentType.Equal(*other.ContentType)
	}
	return true
}

func (b Body) Clone() Body {
	out := Body{State: b.State, Hint: b.Hint}
	if b.Value != nil {
		out.Value = append([]byte{}, b.Value...)
	}
	if b.ContentType != nil {
		c := *b.ContentType
		if c.Attributes != nil {
			attrs := make(map[string]string, len(c.Attributes))
			for k, v := range c.Attributes {
				attrs[k] = v
			}
			c.Attributes = attrs
		}
		out.ContentType = &c
	}
	return out
}

func (b Body) String() string {
	switch b.State {
	case BodyMissing:
		return "Missing"
	case BodyNull:
		return "Null"
	}
	if b.ContentType != nil {
		return fmt.Sprintf("Present(%d bytes, %s)", len(b.Value), b.ContentType)
	}
	return fmt.Sprintf("Present(%d bytes)", len(b.Value))
}

// resolveContentType returns the content type of the body, falling back to the header map
// and then to sniffing.
func (b Body) resolveContentType(headers map[string][]string) contenttype.ContentType {
	ct, err := contenttype.Resolve(b.ContentType, headers, b.Value)
	if err != nil {
		log.Debugf("unable to resolve body content type: %v", err)
	}
	return ct
}

func (b Body) isText(ct contenttype.ContentType) bool {
	switch b.Hint {
	case HintText:
		return true
	case HintBinary:
		return false
	}
	return ct.IsText() && utf8.Valid(b.Value)
}

// bodyFromEnvelope decodes the V4 body envelope
// `{"content": ..., "contentType": ..., "encoded": false|"base64"|"json", "contentTypeHint": ...}`.
func bodyFromEnvelope(r gjson.Result) Body {
	if !r.Exists() {
		return MissingBody()
	}
	if r.Type == gjson.Null {
		return NullBody()
	}
	if !r.IsObject() {
		log.Warnf("body must be a JSON object, got %s. Treating it as raw content", r.Raw)
		return bodyFromLegacy(r, nil)
	}

	b := Body{State: BodyPresent, Hint: parseHint(r.Get("contentTypeHint").String())}
	if ctValue := r.Get("contentType"); ctValue.Exists() {
		ct, err := contenttype.Parse(ctValue.String())
		if err != nil {
			log.Warnf("ignoring body content type: %v", err)
		} else {
			b.ContentType = &ct
		}
	}

	content := r.Get("content")
	encoded := r.Get("encoded")
	switch {
	case !content.Exists() || content.Type == gjson.Null:
		b.Value = []byte{}
	case encoded.String() == "base64":
		data, err := base64.StdEncoding.DecodeString(content.String())
		if err != nil {
			log.Warnf("body content is not valid base64, keeping it as text: %v", err)
			data = []byte(content.String())
		}
		b.Value = data
	case content.Type == gjson.String && encoded.String() != "json":
		b.Value = []byte(content.String())
	default:
		b.Value = compactJSON(content.Raw)
	}
	return b
}

// toEnvelope encodes the body in the V4 envelope form. Missing bodies encode to nil.
func (b Body) toEnvelope(headers map[string][]string) interface{} {
	switch b.State {
	case BodyMissing:
		return nil
	case BodyNull:
		return json.RawMessage("null")
	}

	out := map[string]interface{}{}
	if b.ContentType != nil {
		out["contentType"] = b.ContentType.String()
	}
	if b.Hint != HintDefault {
		out["contentTypeHint"] = b.Hint.String()
	}
	if len(b.Value) == 0 {
		out["content"] = ""
		out["encoded"] = false
		return out
	}

	ct := b.resolveContentType(headers)
	out["contentType"] = ct.String()
	switch {
	case ct.IsJSON() && json.Valid(b.Value) && b.Hint != HintBinary:
		out["content"] = json.RawMessage(compactJSON(string(b.Value)))
		out["encoded"] = false
	case b.isText(ct):
		out["content"] = string(b.Value)
		out["encoded"] = false
	default:
		out["content"] = base64.StdEncoding.EncodeToString(b.Value)
		out["encoded"] = "base64"
	}
	return out
}

// bodyFromLegacy decodes the V1-V3 form where the body is written directly: strings are the
// raw content and any other JSON value is the JSON document itself.
func bodyFromLegacy(r gjson.Result, headers map[string][]string) Body {
	if !r.Exists() {
		return MissingBody()
	}
	if r.Type == gjson.Null {
		return NullBody()
	}
	if r.Type == gjson.String {
		return Body{State: BodyPresent, Value: []byte(r.String())}
	}
	b := Body{State: BodyPresent, Value: compactJSON(r.Raw)}
	if _, ok := contenttype.FromHeaders(headers); !ok {
		ct := contenttype.MustParse(contenttype.JSON)
		b.ContentType = &ct
	}
	return b
}

// toLegacy encodes the body in the V1-V3 form.
func (b Body) toLegacy(headers map[string][]string) interface{} {
	switch b.State {
	case BodyMissing:
		return nil
	case BodyNull:
		return json.RawMessage("null")
	}
	ct := b.resolveContentType(headers)
	if ct.IsJSON() && len(b.Value) > 0 && json.Valid(b.Value) {
		return json.RawMessage(compactJSON(string(b.Value)))
	}
	if !b.isText(ct) && len(b.Value) > 0 {
		log.Warnf("writing %d bytes of %s content as text, binary bodies are only supported from V4", len(b.Value), ct)
	}
	return string(b.Value)
}

func compactJSON(raw string) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return []byte(raw)
	}
	return buf.Bytes()
}
