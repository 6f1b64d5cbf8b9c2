package schema

import (
	"encoding/json"
	"fmt"
)

// InvocationRequest is one tool call extracted from a model response.
// RawArguments is the JSON text exactly as the model produced it.
type InvocationRequest struct {
	ID           string
	ToolName     string
	RawArguments string
}

// Failure describes a failed invocation.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// NewFailure classifies err into a Failure.
func NewFailure(err error) *Failure {
	return &Failure{Kind: KindOf(err), Message: err.Error(), Err: err}
}

// InvocationResult is the outcome of executing one InvocationRequest.
// Exactly one of Value and Failure is meaningful.
type InvocationResult struct {
	ToolName string
	CallID   string
	Value    any
	Failure  *Failure
}

// OK reports whether the invocation succeeded.
func (r InvocationResult) OK() bool { return r.Failure == nil }

// Text renders the result for display: strings verbatim, other values as
// compact JSON, failures as "Error: <message>".
func (r InvocationResult) Text() string {
	if r.Failure != nil {
		return "Error: " + r.Failure.Message
	}
	switch v := r.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.RawMessage:
		return string(v)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Sprint(r.Value)
	}
	return string(b)
}
