package models

import (
	"strings"

	"github.com/form3tech-oss/pact-core/pkg/contenttype"
	"github.com/form3tech-oss/pact-core/pkg/generators"
	"github.com/form3tech-oss/pact-core/pkg/matchingrules"
	"github.com/form3tech-oss/pact-core/pkg/pactpath"
	"github.com/pkg/errors"
)

// parts shared by every builder
type fragments struct {
	headers map[string][]string
	body    Body
	rules   matchingrules.MatchingRules
	gens    generators.Generators
	err     error
}

func (f *fragments) header(name string, values ...string) {
	if f.headers == nil {
		f.headers = map[string][]string{}
	}
	f.headers[name] = append(f.headers[name], values...)
}

func (f *fragments) jsonBody(value interface{}) {
	body, err := JSONBody(value)
	if err != nil {
		f.fail(errors.Wrap(err, "unable to encode JSON body"))
		return
	}
	f.body = body
	f.header("Content-Type", contenttype.JSON)
}

func (f *fragments) rule(category, path string, rule matchingrules.Rule) {
	p, err := pactpath.Parse(path)
	if err != nil {
		f.fail(err)
		return
	}
	f.rules = f.rules.With(category, p, rule)
}

func (f *fragments) generator(category, path string, gen generators.Generator) {
	p, err := pactpath.Parse(path)
	if err != nil {
		f.fail(err)
		return
	}
	f.gens = f.gens.With(category, p, gen)
}

func (f *fragments) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

// RequestBuilder assembles a Request. Nothing is visible to callers until Build.
type RequestBuilder struct {
	method string
	path   string
	query  map[string][]string
	fragments
}

func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{method: "GET", path: "/"}
}

func (b *RequestBuilder) Method(method string) *RequestBuilder {
	b.method = strings.ToUpper(method)
	return b
}

func (b *RequestBuilder) Path(path string) *RequestBuilder {
	b.path = path
	return b
}

func (b *RequestBuilder) Query(name string, values ...string) *RequestBuilder {
	if b.query == nil {
		b.query = map[string][]string{}
	}
	b.query[name] = append(b.query[name], values...)
	return b
}

func (b *RequestBuilder) Header(name string, values ...string) *RequestBuilder {
	b.header(name, values...)
	return b
}

func (b *RequestBuilder) Body(body Body) *RequestBuilder {
	b.body = body.Clone()
	return b
}

// JSONBody sets an application/json body and the matching Content-Type header.
func (b *RequestBuilder) JSONBody(value interface{}) *RequestBuilder {
	b.jsonBody(value)
	return b
}

func (b *RequestBuilder) MatchingRule(category, path string, rule matchingrules.Rule) *RequestBuilder {
	b.rule(category, path, rule)
	return b
}

func (b *RequestBuilder) Generator(category, path string, gen generators.Generator) *RequestBuilder {
	b.generator(category, path, gen)
	return b
}

// Build returns the assembled request, or the first error met while building it.
func (b *RequestBuilder) Build() (Request, error) {
	if b.err != nil {
		return Request{}, b.err
	}
	return Request{
		Method:        b.method,
		Path:          b.path,
		Query:         copyValues(b.query),
		Headers:       copyValues(b.headers),
		Body:          b.body.Clone(),
		MatchingRules: b.rules,
		Generators:    b.gens,
	}, nil
}

// ResponseBuilder assembles a Response.
type ResponseBuilder struct {
	status int
	fragments
}

func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{status: 200}
}

func (b *ResponseBuilder) Status(status int) *ResponseBuilder {
	b.status = status
	return b
}

func (b *ResponseBuilder) OK() *ResponseBuilder           { return b.Status(200) }
func (b *ResponseBuilder) Created() *ResponseBuilder      { return b.Status(201) }
func (b *ResponseBuilder) NoContent() *ResponseBuilder    { return b.Status(204) }
func (b *ResponseBuilder) Unauthorized() *ResponseBuilder { return b.Status(401) }
func (b *ResponseBuilder) Forbidden() *ResponseBuilder    { return b.Status(403) }
func (b *ResponseBuilder) NotFound() *ResponseBuilder     { return b.Status(404) }

func (b *ResponseBuilder) Header(name string, values ...string) *ResponseBuilder {
	b.header(name, values...)
	return b
}

func (b *ResponseBuilder) Body(body Body) *ResponseBuilder {
	b.body = body.Clone()
	return b
}

func (b *ResponseBuilder) JSONBody(value interface{}) *ResponseBuilder {
	b.jsonBody(value)
	return b
}

func (b *ResponseBuilder) MatchingRule(category, path string, rule matchingrules.Rule) *ResponseBuilder {
	b.rule(category, path, rule)
	return b
}

func (b *ResponseBuilder) Generator(category, path string, gen generators.Generator) *ResponseBuilder {
	b.generator(category, path, gen)
	return b
}

func (b *ResponseBuilder) Build() (Response, error) {
	if b.err != nil {
		return Response{}, b.err
	}
	return Response{
		Status:        b.status,
		Headers:       copyValues(b.headers),
		Body:          b.body.Clone(),
		MatchingRules: b.rules,
		Generators:    b.gens,
	}, nil
}

// MessageBuilder assembles MessageContents. Headers set on it become metadata entries.
type MessageBuilder struct {
	metadata map[string]interface{}
	fragments
}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{}
}

func (b *MessageBuilder) Metadata(key string, value interface{}) *MessageBuilder {
	if b.metadata == nil {
		b.metadata = map[string]interface{}{}
	}
	b.metadata[key] = copyValue(value)
	return b
}

func (b *MessageBuilder) Body(body Body) *MessageBuilder {
	b.body = body.Clone()
	return b
}

// JSONBody sets an application/json body and the matching contentType metadata entry.
func (b *MessageBuilder) JSONBody(value interface{}) *MessageBuilder {
	body, err := JSONBody(value)
	if err != nil {
		b.fail(errors.Wrap(err, "unable to encode JSON body"))
		return b
	}
	b.body = body
	return b.Metadata("contentType", contenttype.JSON)
}

func (b *MessageBuilder) MatchingRule(category, path string, rule matchingrules.Rule) *MessageBuilder {
	b.rule(category, path, rule)
	return b
}

func (b *MessageBuilder) Generator(category, path string, gen generators.Generator) *MessageBuilder {
	b.generator(category, path, gen)
	return b
}

func (b *MessageBuilder) Build() (MessageContents, error) {
	if b.err != nil {
		return MessageContents{}, b.err
	}
	return MessageContents{
		Body:          b.body.Clone(),
		Metadata:      copyMap(b.metadata),
		MatchingRules: b.rules,
		Generators:    b.gens,
	}, nil
}
