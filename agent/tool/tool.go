package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

type ParamType string

const (
	String       ParamType = "string"
	Integer      ParamType = "integer"
	Number       ParamType = "number"
	Boolean      ParamType = "boolean"
	StringArray  ParamType = "string_array"
	IntegerArray ParamType = "integer_array"
)

// Param declares one tool argument. Default applies when an optional
// argument is absent; a nil Default leaves it absent.
type Param struct {
	Name      string
	Type      ParamType
	Desc      string
	Required  bool
	Default   any
	Enum      []string
	Sensitive bool
}

// Handler runs a tool against normalized arguments and returns the text to
// speak. Returning an error lets the dispatcher pick a safe reply.
type Handler func(ctx context.Context, args Args) (string, error)

type Tool struct {
	Name    string
	Desc    string
	Params  []Param
	Handler Handler
}

func (t Tool) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Params))
	for _, p := range t.Params {
		if p.Name == "" {
			return fmt.Errorf("tool %s has an unnamed parameter", t.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("tool %s declares %s twice", t.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		switch p.Type {
		case String, Integer, Number, Boolean, StringArray, IntegerArray:
		default:
			return fmt.Errorf("tool %s parameter %s has unsupported type %q", t.Name, p.Name, p.Type)
		}
	}
	return nil
}

// Info renders the eino declaration handed to chat models.
func (t Tool) Info() *schema.ToolInfo {
	info := &schema.ToolInfo{Name: t.Name, Desc: t.Desc}
	if len(t.Params) == 0 {
		return info
	}
	params := make(map[string]*schema.ParameterInfo, len(t.Params))
	for _, p := range t.Params {
		params[p.Name] = p.info()
	}
	info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
	return info
}

func (p Param) info() *schema.ParameterInfo {
	pi := &schema.ParameterInfo{Desc: p.describe(), Required: p.Required, Enum: p.Enum}
	switch p.Type {
	case Integer:
		pi.Type = schema.Integer
	case Number:
		pi.Type = schema.Number
	case Boolean:
		pi.Type = schema.Boolean
	case StringArray:
		pi.Type = schema.Array
		pi.ElemInfo = &schema.ParameterInfo{Type: schema.String}
	case IntegerArray:
		pi.Type = schema.Array
		pi.ElemInfo = &schema.ParameterInfo{Type: schema.Integer}
	default:
		pi.Type = schema.String
	}
	return pi
}

func (p Param) describe() string {
	if p.Default == nil {
		return p.Desc
	}
	return fmt.Sprintf("%s (default %v)", p.Desc, p.Default)
}

// JSONSchema returns the parameters object in OpenAI function form.
func (t Tool) JSONSchema() map[string]any {
	props := make(map[string]any, len(t.Params))
	required := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		prop := map[string]any{"description": p.Desc}
		switch p.Type {
		case StringArray:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		case IntegerArray:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "integer"}
		default:
			prop["type"] = string(p.Type)
		}
		if len(p.Enum) > 0 {
			prop["enum"] = append([]string(nil), p.Enum...)
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func (t Tool) Spec() contractx.ToolSpec {
	return contractx.ToolSpec{Name: t.Name, Description: t.Desc, Parameters: t.JSONSchema()}
}

// Failure is an error that carries the exact reply to speak. Class is one of
// the contract sentinels and drives logging.
type Failure struct {
	Class   error
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%v: %v", f.Class, f.Cause)
	}
	return fmt.Sprintf("%v: %s", f.Class, f.Message)
}

func (f *Failure) Unwrap() []error {
	if f.Cause != nil {
		return []error{f.Class, f.Cause}
	}
	return []error{f.Class}
}

// Reply fails a call with a specific spoken message.
func Reply(class error, message string) error {
	return &Failure{Class: class, Message: message}
}

// ReplyCause is Reply with the underlying error kept for logs.
func ReplyCause(class error, message string, cause error) error {
	return &Failure{Class: class, Message: message, Cause: cause}
}
