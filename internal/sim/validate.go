package sim

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE []byte

// Validator checks design files against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	design cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaCUE)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}
	design := schema.LookupPath(cue.ParsePath("#Design"))
	if design.Err() != nil {
		return nil, fmt.Errorf("looking up #Design definition: %w", design.Err())
	}
	return &Validator{ctx: ctx, design: design}, nil
}

// Validate checks a decoded design. data is anything that marshals to the
// JSON form of File.
func (v *Validator) Validate(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling design to JSON: %w", err)
	}
	return v.ValidateJSON(raw)
}

// ValidateJSON checks a JSON encoded design.
func (v *Validator) ValidateJSON(raw []byte) error {
	value := v.ctx.CompileBytes(raw)
	if value.Err() != nil {
		return fmt.Errorf("compiling design as CUE: %w", value.Err())
	}
	if err := v.design.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("design validation failed: %w", err)
	}
	return nil
}

// Problems lists every schema violation in data, one message each.
func (v *Validator) Problems(data any) []string {
	err := v.Validate(data)
	if err == nil {
		return nil
	}
	var out []string
	for _, e := range errors.Errors(err) {
		out = append(out, e.Error())
	}
	if len(out) == 0 {
		out = append(out, err.Error())
	}
	return out
}
