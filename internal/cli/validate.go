package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/gpi/internal/sim"
)

// FileValidation is the outcome for one design file.
type FileValidation struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <design.yaml>...",
		Short: "Validate design files without simulating them",
		Long: `Validate design files against the design schema and elaborate them.

Reports every schema violation of each file. Files that pass the schema are
elaborated so that unknown types, bad ranges and dangling driver or load
references are reported too.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	v, err := sim.NewValidator()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile design schema", err)
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, path := range files {
		fv := validateFile(v, path)
		formatter.VerboseLog("%s: %d problem(s)", path, len(fv.Problems))
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if formatter.JSON() {
		if result.Valid {
			if err := formatter.Success(result); err != nil {
				return err
			}
		} else if err := formatter.Error(ErrCodeValidation, "validation failed", result); err != nil {
			return err
		}
	} else {
		for _, fv := range result.Files {
			if fv.Valid {
				fmt.Fprintf(formatter.Writer, "%s: ok\n", fv.File)
				continue
			}
			fmt.Fprintf(formatter.Writer, "%s:\n", fv.File)
			for _, p := range fv.Problems {
				fmt.Fprintf(formatter.Writer, "  - %s\n", p)
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func validateFile(v *sim.Validator, path string) FileValidation {
	fv := FileValidation{File: path}
	data, err := os.ReadFile(path)
	if err != nil {
		fv.Problems = []string{err.Error()}
		return fv
	}
	f, err := sim.DecodeFile(data)
	if err != nil {
		fv.Problems = []string{err.Error()}
		return fv
	}
	if fv.Problems = v.Problems(f); len(fv.Problems) > 0 {
		return fv
	}
	if _, err := sim.Elaborate(f); err != nil {
		fv.Problems = []string{err.Error()}
		return fv
	}
	fv.Valid = true
	return fv
}
