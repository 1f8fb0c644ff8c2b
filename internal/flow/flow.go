// Package flow runs the guided multi-step forms of the bot.
//
// A flow is data: an ordered list of fields, each with a prompt and a
// validator, plus a commit step. The engine keeps one active flow per actor
// in a state.Manager under the token "<flow>:<field>" and collects the
// validated values in the session scratch map.
package flow

import (
	"context"
	"strings"
)

// Kind names a flow.
type Kind string

const (
	BookCreate Kind = "book_create"
	BookEdit   Kind = "book_edit"
	AdminEdit  Kind = "admin_edit"
	AdminAdd   Kind = "admin_add"
	Order      Kind = "order"
	TextEdit   Kind = "text_edit"
	Question   Kind = "question"
	Reply      Kind = "reply"
)

// Outcome is the result class of a Start or Submit call.
type Outcome string

const (
	// OutcomePrompt means a value was accepted and the next field is asked.
	OutcomePrompt Outcome = "prompt"
	// OutcomeInvalid means the input was rejected; the same field is asked again.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeCommitted means the flow finished and its result was stored.
	OutcomeCommitted Outcome = "committed"
	// OutcomeAborted means the flow ended without storing anything.
	OutcomeAborted Outcome = "aborted"
	// OutcomeIdle means no flow was active.
	OutcomeIdle Outcome = "idle"
)

// Values is the scratch data collected by a flow.
type Values map[string]string

// Contact is a shared Telegram contact.
type Contact struct {
	UserID    int64
	FirstName string
	LastName  string
	Phone     string
}

// Name joins first and last name.
func (c Contact) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Input is one message or button press submitted to the active flow.
type Input struct {
	Text    string
	PhotoID string
	Contact *Contact
}

// Option is a predefined answer rendered as a button.
type Option struct {
	Label string
	Value string
}

// Prompt asks the actor for the next value.
type Prompt struct {
	Text    string
	Options []Option
}

// PromptFunc builds the prompt for a field from the values collected so far.
type PromptFunc func(ctx context.Context, v Values) (Prompt, error)

// Validator turns an input into the canonical value stored for a field.
// Validation errors keep the flow on the same field; other errors abort it.
type Validator func(ctx context.Context, in Input, v Values) (string, error)

// CommitFunc stores the collected values and returns the confirmation text.
type CommitFunc func(ctx context.Context, actor int64, v Values) (string, error)

// Field is one step of a flow.
type Field struct {
	Name     string
	Prompt   PromptFunc
	Validate Validator
	// Extra copies additional values out of an accepted input.
	Extra func(in Input) Values
}

// Flow is a complete form definition.
type Flow struct {
	Kind   Kind
	Fields []Field
	Commit CommitFunc
}

// Result reports what happened to a Start or Submit call.
type Result struct {
	Outcome Outcome
	Flow    Kind
	// Field is the field now being asked, empty once the flow is over.
	Field  string
	Prompt Prompt
	// Message is the confirmation, the validation hint or the abort reason.
	Message string
	Err     error
}

// Ask returns a PromptFunc with a fixed text.
func Ask(text string) PromptFunc {
	return func(context.Context, Values) (Prompt, error) {
		return Prompt{Text: text}, nil
	}
}

// Choose returns a PromptFunc with a fixed text and options.
func Choose(text string, options ...Option) PromptFunc {
	return func(context.Context, Values) (Prompt, error) {
		return Prompt{Text: text, Options: options}, nil
	}
}

func (f Flow) field(name string) (int, bool) {
	for i, fd := range f.Fields {
		if fd.Name == name {
			return i, true
		}
	}
	return 0, false
}

// next returns the first field after index from that has no value yet.
func (f Flow) next(from int, v Values) (Field, bool) {
	for i := from; i < len(f.Fields); i++ {
		if _, ok := v[f.Fields[i].Name]; !ok {
			return f.Fields[i], true
		}
	}
	return Field{}, false
}

func token(kind Kind, field string) string {
	return string(kind) + ":" + field
}

func parseToken(s string) (Kind, string, bool) {
	kind, field, ok := strings.Cut(s, ":")
	if !ok || kind == "" || field == "" {
		return "", "", false
	}
	return Kind(kind), field, true
}
