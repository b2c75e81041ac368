package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/druidq/internal/query"
	"github.com/roach88/druidq/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool               `json:"valid"`
	QueryType string             `json:"queryType,omitempty"`
	Hash      string             `json:"hash,omitempty"`
	Errors    []schema.Violation `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Executable bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a query document against its queryType's rules",
		Long: `Check a query document against the rules of its queryType.

Every violation is reported, not just the first: unknown types, missing and
forbidden fields, mismatched field types and values outside an enumeration,
including those inside nested filters and aggregations.

With --executable the query must also name a data source.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Executable, "executable", false, "also require a data source")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	obj, err := LoadDocument(path)
	if err != nil {
		code, msg := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, msg, nil)
	}
	formatter.VerboseLog("Loaded %s", path)

	q, err := query.Parse(obj)
	if err == nil && opts.Executable {
		err = query.Executable(q)
	}
	if err != nil {
		violations := schema.Violations(err)
		if violations == nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		return outputViolations(formatter, violations)
	}

	hash, err := q.Hash()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, QueryType: q.Kind(), Hash: hash})
	}
	fmt.Fprintf(formatter.Writer, "✓ Valid %s query\n", q.Kind())
	formatter.VerboseLog("hash %s", hash)
	return nil
}

// outputViolations reports every violation and returns an ExitFailure error.
func outputViolations(formatter *OutputFormatter, violations []schema.Violation) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(violations)))

	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: violations},
			Error: &CLIError{
				Code:    violations[0].Code,
				Message: violations[0].Message,
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Invalid Druid query")
	fmt.Fprintln(formatter.Writer)
	for _, v := range violations {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", v.Code, v.Message)
	}
	return exitErr
}
