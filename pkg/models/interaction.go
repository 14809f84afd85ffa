package models

import (
	"fmt"
	"strings"

	"github.com/form3tech-oss/pact-core/pkg/contenttype"
	"github.com/form3tech-oss/pact-core/pkg/generators"
	"github.com/form3tech-oss/pact-core/pkg/matchingrules"
)

const (
	TypeSynchronousHTTP      = "Synchronous/HTTP"
	TypeAsynchronousMessages = "Asynchronous/Messages"
	TypeSynchronousMessages  = "Synchronous/Messages"
)

// Variant is the part of an interaction that differs by kind. It is implemented by
// HTTPExchange, AsyncMessage and SyncMessages only.
type Variant interface {
	TypeName() string
	variant()
}

type HTTPExchange struct {
	Request  Request
	Response Response
}

type AsyncMessage struct {
	Contents MessageContents
}

// SyncMessages is a request message answered by one or more response messages.
type SyncMessages struct {
	Request   MessageContents
	Responses []MessageContents
}

func (HTTPExchange) TypeName() string { return TypeSynchronousHTTP }
func (AsyncMessage) TypeName() string { return TypeAsynchronousMessages }
func (SyncMessages) TypeName() string { return TypeSynchronousMessages }

func (HTTPExchange) variant() {}
func (AsyncMessage) variant() {}
func (SyncMessages) variant() {}

// Interaction is one recorded exchange of a contract file. Interactions are values: every
// With method returns a copy sharing nothing mutable with the receiver.
type Interaction struct {
	// ID is only set when the interaction was loaded from a broker.
	ID             *string
	Key            *string
	Description    string
	ProviderStates []ProviderState
	Comments       map[string]interface{}
	Pending        bool
	Variant        Variant
}

func NewHTTPInteraction(description string, request Request, response Response) Interaction {
	return Interaction{
		Description: description,
		Variant:     HTTPExchange{Request: request.Clone(), Response: response.Clone()},
	}
}

func NewAsyncMessage(description string, contents MessageContents) Interaction {
	return Interaction{
		Description: description,
		Variant:     AsyncMessage{Contents: contents.Clone()},
	}
}

func NewSyncMessages(description string, request MessageContents, responses ...MessageContents) Interaction {
	return Interaction{
		Description: description,
		Variant:     SyncMessages{Request: request.Clone(), Responses: cloneContents(responses)},
	}
}

func (i Interaction) WithProviderStates(states ...ProviderState) Interaction {
	out := i.Clone()
	out.ProviderStates = cloneProviderStates(states)
	return out
}

func (i Interaction) WithComments(comments map[string]interface{}) Interaction {
	out := i.Clone()
	out.Comments = copyMap(comments)
	return out
}

func (i Interaction) WithPending(pending bool) Interaction {
	out := i.Clone()
	out.Pending = pending
	return out
}

func (i Interaction) TypeName() string {
	if i.Variant == nil {
		return TypeSynchronousHTTP
	}
	return i.Variant.TypeName()
}

func (i Interaction) IsRequestResponse() bool {
	_, ok := i.Variant.(HTTPExchange)
	return ok
}

func (i Interaction) IsMessage() bool {
	switch i.Variant.(type) {
	case AsyncMessage, SyncMessages:
		return true
	}
	return false
}

// ContentType is the content type of the response for HTTP interactions, of the contents
// for asynchronous messages and of the request for synchronous messages.
func (i Interaction) ContentType() (contenttype.ContentType, bool) {
	switch v := i.Variant.(type) {
	case HTTPExchange:
		return v.Response.ContentType()
	case AsyncMessage:
		return v.Contents.ContentType()
	case SyncMessages:
		return v.Request.ContentType()
	}
	return contenttype.ContentType{}, false
}

// ContentsForVerification is the payload a verifier checks. For synchronous messages this
// is the first response only; use SyncMessages.Responses to check the others.
func (i Interaction) ContentsForVerification() Body {
	switch v := i.Variant.(type) {
	case HTTPExchange:
		return v.Response.Body.Clone()
	case AsyncMessage:
		return v.Contents.Body.Clone()
	case SyncMessages:
		if len(v.Responses) > 0 {
			return v.Responses[0].Body.Clone()
		}
	}
	return MissingBody()
}

// MatchingRules returns the rules that apply to ContentsForVerification.
func (i Interaction) MatchingRules() matchingrules.MatchingRules {
	switch v := i.Variant.(type) {
	case HTTPExchange:
		return v.Response.MatchingRules
	case AsyncMessage:
		return v.Contents.MatchingRules
	case SyncMessages:
		if len(v.Responses) > 0 {
			return v.Responses[0].MatchingRules
		}
	}
	return matchingrules.MatchingRules{}
}

// Generators returns the generators that apply to ContentsForVerification.
func (i Interaction) Generators() generators.Generators {
	switch v := i.Variant.(type) {
	case HTTPExchange:
		return v.Response.Generators
	case AsyncMessage:
		return v.Contents.Generators
	case SyncMessages:
		if len(v.Responses) > 0 {
			return v.Responses[0].Generators
		}
	}
	return generators.Generators{}
}

func (i Interaction) Clone() Interaction {
	out := Interaction{
		Description:    i.Description,
		ProviderStates: cloneProviderStates(i.ProviderStates),
		Comments:       copyMap(i.Comments),
		Pending:        i.Pending,
		Variant:        cloneVariant(i.Variant),
	}
	if i.ID != nil {
		id := *i.ID
		out.ID = &id
	}
	if i.Key != nil {
		key := *i.Key
		out.Key = &key
	}
	return out
}

func cloneVariant(v Variant) Variant {
	switch t := v.(type) {
	case HTTPExchange:
		return HTTPExchange{Request: t.Request.Clone(), Response: t.Response.Clone()}
	case AsyncMessage:
		return AsyncMessage{Contents: t.Contents.Clone()}
	case SyncMessages:
		return SyncMessages{Request: t.Request.Clone(), Responses: cloneContents(t.Responses)}
	}
	return v
}

func cloneContents(contents []MessageContents) []MessageContents {
	if contents == nil {
		return nil
	}
	out := make([]MessageContents, len(contents))
	for i, c := range contents {
		out[i] = c.Clone()
	}
	return out
}

func (i Interaction) String() string {
	states := make([]string, 0, len(i.ProviderStates))
	for _, s := range i.ProviderStates {
		states = append(states, s.Name)
	}
	key := "None"
	if i.Key != nil {
		key = *i.Key
	}

	var part string
	switch v := i.Variant.(type) {
	case HTTPExchange:
		part = fmt.Sprintf("request: %s %s, response: %d %s", v.Request.Method, v.Request.Path, v.Response.Status, v.Response.Body)
	case AsyncMessage:
		part = fmt.Sprintf("contents: %s", v.Contents)
	case SyncMessages:
		responses := make([]string, 0, len(v.Responses))
		for _, r := range v.Responses {
			responses = append(responses, r.String())
		}
		part = fmt.Sprintf("request: %s, responses: [%s]", v.Request, strings.Join(responses, ", "))
	}
	return fmt.Sprintf("%s ( key: %s, description: %q, providerStates: %v, pending: %t, %s )",
		i.TypeName(), key, i.Description, states, i.Pending, part)
}
