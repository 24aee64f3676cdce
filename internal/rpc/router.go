package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind distinguishes side-effect free queries from mutations.
type Kind int

const (
	Query Kind = iota
	Mutation
)

func (k Kind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "query"
}

// Handler runs a procedure on its raw JSON input. Input is nil when the
// caller sent none.
type Handler func(ctx context.Context, input json.RawMessage) (any, error)

// Procedure is one named entry in the router.
type Procedure struct {
	Name    string
	Kind    Kind
	Handler Handler
}

// Router is a flat name to procedure table. It is built once at startup
// and read concurrently afterwards.
type Router struct {
	procedures map[string]Procedure
	validate   *validator.Validate
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Router{procedures: make(map[string]Procedure), validate: v}
}

// Register adds a procedure. Registering the same name twice panics.
func (r *Router) Register(p Procedure) {
	if p.Name == "" || p.Handler == nil {
		panic("rpc: procedure needs a name and a handler")
	}
	if _, dup := r.procedures[p.Name]; dup {
		panic(fmt.Sprintf("rpc: procedure %q registered twice", p.Name))
	}
	r.procedures[p.Name] = p
}

// Lookup returns the procedure registered under name.
func (r *Router) Lookup(name string) (Procedure, bool) {
	p, ok := r.procedures[name]
	return p, ok
}

// Names returns the registered procedure names in sorted order.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named procedure if it exists and matches kind.
// Every returned error is an *Error.
func (r *Router) Call(ctx context.Context, name string, kind Kind, input json.RawMessage) (any, error) {
	p, ok := r.procedures[name]
	if !ok {
		return nil, Errorf(CodeNotFound, "No procedure found on path %q", name)
	}
	if p.Kind != kind {
		return nil, Errorf(CodeMethodNotSupported, "Unsupported %s-method to %s procedure at path %q", kind, p.Kind, name)
	}

	result, err := p.Handler(ctx, input)
	if err != nil {
		return nil, ToError(err)
	}
	return result, nil
}

// decodeInput unmarshals raw into a T and validates its struct tags.
// Missing input decodes to the zero value before validation.
func decodeInput[T any](v *validator.Validate, raw json.RawMessage) (T, error) {
	var in T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &in); err != nil {
			return in, err
		}
	}
	if err := v.Struct(in); err != nil {
		return in, err
	}
	return in, nil
}
