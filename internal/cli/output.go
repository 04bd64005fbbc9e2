package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/gpi/internal/ir"
)

// Error codes carried in JSON error responses.
const (
	ErrCodeGeneric    = "E001"
	ErrCodeDesign     = "E002"
	ErrCodeNotFound   = "E003"
	ErrCodeScenario   = "E004"
	ErrCodeDatabase   = "E005"
	ErrCodeValidation = "E006"
)

// CLIResponse is the envelope of every --format json result.
type CLIResponse struct {
	Status string    `json:"status"` // ok | error
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command in a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as JSON envelopes.
// Diagnostics go to ErrWriter, falling back to Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: out, ErrWriter: errOut, Verbose: opts.Verbose}
}

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool { return f.Format == "json" }

func (f *OutputFormatter) envelope(r CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(r)
}

// Success writes data. Text output prints it with fmt's default format, so
// commands with structured results print their own text instead.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.envelope(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Canonical writes v as one line of canonical JSON, without an envelope.
// Hierarchy dumps use it so their bytes are stable.
func (f *OutputFormatter) Canonical(v ir.Value) error {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = f.Writer.Write(data)
	return err
}

// Error reports a failure. Details appear in text output only when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.envelope(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog prints a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
