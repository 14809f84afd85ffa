package models

import (
	"net/url"
	"sort"
	"strings"

	"github.com/form3tech-oss/pact-core/pkg/contenttype"
	"github.com/form3tech-oss/pact-core/pkg/generators"
	"github.com/form3tech-oss/pact-core/pkg/matchingrules"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Request is the HTTP request half of an HTTP interaction.
type Request struct {
	Method        string
	Path          string
	Query         map[string][]string
	Headers       map[string][]string
	Body          Body
	MatchingRules matchingrules.MatchingRules
	Generators    generators.Generators
}

func DefaultRequest() Request {
	return Request{Method: "GET", Path: "/"}
}

// Response is the HTTP response half of an HTTP interaction.
type Response struct {
	Status        int
	Headers       map[string][]string
	Body          Body
	MatchingRules matchingrules.MatchingRules
	Generators    generators.Generators
}

func DefaultResponse() Response {
	return Response{Status: 200}
}

func (r Request) ContentType() (contenttype.ContentType, bool) {
	return bodyContentType(r.Body, r.Headers)
}

func (r Response) ContentType() (contenttype.ContentType, bool) {
	return bodyContentType(r.Body, r.Headers)
}

func bodyContentType(b Body, headers map[string][]string) (contenttype.ContentType, bool) {
	if !b.IsPresent() && b.ContentType == nil {
		return contenttype.FromHeaders(headers)
	}
	ct, err := contenttype.Resolve(b.ContentType, headers, b.Value)
	return ct, err == nil
}

func (r Request) Clone() Request {
	return Request{
		Method:        r.Method,
		Path:          r.Path,
		Query:         copyValues(r.Query),
		Headers:       copyValues(r.Headers),
		Body:          r.Body.Clone(),
		MatchingRules: r.MatchingRules,
		Generators:    r.Generators,
	}
}

func (r Response) Clone() Response {
	return Response{
		Status:        r.Status,
		Headers:       copyValues(r.Headers),
		Body:          r.Body.Clone(),
		MatchingRules: r.MatchingRules,
		Generators:    r.Generators,
	}
}

func requestFromJSON(r gjson.Result, version SpecVersion) (Request, error) {
	req := DefaultRequest()
	if !r.Exists() {
		return req, nil
	}
	if !r.IsObject() {
		return req, errors.Wrapf(ErrMalformedJSON, "Expected a JSON object for the request, got '%s'", r.Raw)
	}

	if method := r.Get("method"); method.Exists() {
		req.Method = strings.ToUpper(method.String())
	}
	if path := r.Get("path"); path.Exists() {
		req.Path = path.String()
	}
	req.Query = queryFromJSON(r.Get("query"))
	req.Headers = headersFromJSON(r.Get("headers"))
	req.Body = partBodyFromJSON(r.Get("body"), req.Headers, version)
	req.MatchingRules = rulesFromJSON(r.Get("matchingRules"))
	req.Generators = generatorsFromJSON(r.Get("generators"))
	return req, nil
}

func responseFromJSON(r gjson.Result, version SpecVersion) (Response, error) {
	resp := DefaultResponse()
	if !r.Exists() {
		return resp, nil
	}
	if !r.IsObject() {
		return resp, errors.Wrapf(ErrMalformedJSON, "Expected a JSON object for the response, got '%s'", r.Raw)
	}

	if status := r.Get("status"); status.Exists() {
		resp.Status = int(status.Int())
	}
	resp.Headers = headersFromJSON(r.Get("headers"))
	resp.Body = partBodyFromJSON(r.Get("body"), resp.Headers, version)
	resp.MatchingRules = rulesFromJSON(r.Get("matchingRules"))
	resp.Generators = generatorsFromJSON(r.Get("generators"))
	return resp, nil
}

func partBodyFromJSON(r gjson.Result, headers map[string][]string, version SpecVersion) Body {
	if version >= V4 {
		return bodyFromEnvelope(r)
	}
	return bodyFromLegacy(r, headers)
}

func rulesFromJSON(r gjson.Result) matchingrules.MatchingRules {
	rules, err := matchingrules.FromJSON([]byte(r.Raw))
	if err != nil {
		log.Warnf("ignoring matching rules: %v", err)
	}
	return rules
}

func generatorsFromJSON(r gjson.Result) generators.Generators {
	gens, err := generators.FromJSON([]byte(r.Raw))
	if err != nil {
		log.Warnf("ignoring generators: %v", err)
	}
	return gens
}

// queryFromJSON accepts the V2 query string form and the V3/V4 map form.
func queryFromJSON(r gjson.Result) map[string][]string {
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return nil
	case r.Type == gjson.String:
		if r.String() == "" {
			return nil
		}
		values, err := url.ParseQuery(r.String())
		if err != nil {
			log.Warnf("unable to parse query string %q: %v", r.String(), err)
		}
		return values
	case r.IsObject():
		return valuesFromJSON(r, false)
	}
	log.Warnf("query must be a string or a JSON object, got %s. Ignoring", r.Raw)
	return nil
}

func headersFromJSON(r gjson.Result) map[string][]string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if !r.IsObject() {
		log.Warnf("headers must be a JSON object, got %s. Ignoring", r.Raw)
		return nil
	}
	return valuesFromJSON(r, true)
}

// valuesFromJSON reads a map whose values are strings or lists of strings. Header values
// written as one comma separated string are split.
func valuesFromJSON(r gjson.Result, split bool) map[string][]string {
	out := map[string][]string{}
	r.ForEach(func(key, value gjson.Result) bool {
		if value.IsArray() {
			var values []string
			value.ForEach(func(_, v gjson.Result) bool {
				values = append(values, stringValue(v))
				return true
			})
			out[key.String()] = values
			return true
		}
		s := stringValue(value)
		if split && strings.Contains(s, ",") && !isSingleValueHeader(key.String()) {
			var values []string
			for _, part := range strings.Split(s, ",") {
				values = append(values, strings.TrimSpace(part))
			}
			out[key.String()] = values
			return true
		}
		out[key.String()] = []string{s}
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// headers whose values may legitimately contain commas
var singleValueHeaders = map[string]bool{
	"date":          true,
	"expires":       true,
	"last-modified": true,
	"set-cookie":    true,
	"user-agent":    true,
	"content-type":  true,
	"accept":        true,
}

func isSingleValueHeader(name string) bool {
	return singleValueHeaders[strings.ToLower(name)]
}

func (r Request) toJSON(version SpecVersion) map[string]interface{} {
	out := map[string]interface{}{
		"method": strings.ToUpper(r.Method),
		"path":   r.Path,
	}
	if len(r.Query) > 0 {
		if version < V3 {
			out["query"] = encodeQueryString(r.Query)
		} else {
			out["query"] = valuesToJSON(r.Query, true)
		}
	}
	writePartJSON(out, r.Headers, r.Body, r.MatchingRules, r.Generators, version)
	return out
}

func (r Response) toJSON(version SpecVersion) map[string]interface{} {
	out := map[string]interface{}{"status": r.Status}
	writePartJSON(out, r.Headers, r.Body, r.MatchingRules, r.Generators, version)
	return out
}

func writePartJSON(out map[string]interface{}, headers map[string][]string, body Body,
	rules matchingrules.MatchingRules, gens generators.Generators, version SpecVersion) {
	if len(headers) > 0 {
		out["headers"] = valuesToJSON(headers, version >= V4)
	}

	var encoded interface{}
	if version >= V4 {
		encoded = body.toEnvelope(headers)
	} else {
		encoded = body.toLegacy(headers)
	}
	if encoded != nil {
		out["body"] = encoded
	}

	switch {
	case version < V2:
	case version == V2:
		if v2 := rules.ToV2JSON(); v2 != nil {
			out["matchingRules"] = v2
		}
	default:
		if nested := rules.ToJSON(); nested != nil {
			out["matchingRules"] = nested
		}
	}
	if version >= V3 {
		if g := gens.ToJSON(); g != nil {
			out["generators"] = g
		}
	} else if !gens.IsEmpty() {
		log.Warnf("generators are not supported by specification %s, dropping them", version)
	}
}

// valuesToJSON writes single values as strings. Multiple values are written as a list
// when asList is set, otherwise joined with ", ".
func valuesToJSON(values map[string][]string, asList bool) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch {
		case len(v) == 1:
			out[k] = v[0]
		case asList:
			list := make([]interface{}, len(v))
			for i, s := range v {
				list[i] = s
			}
			out[k] = list
		default:
			out[k] = strings.Join(v, ", ")
		}
	}
	return out
}

func encodeQueryString(query map[string][]string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		for _, v := range query[k] {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}
