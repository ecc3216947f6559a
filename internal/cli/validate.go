package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pixil98/go-orbis/internal/display"
	"github.com/spf13/cobra"
)

// Problem is one asset whose backing file cannot be read.
type Problem struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

type ValidationResult struct {
	Valid    bool      `json:"valid" yaml:"valid"`
	Assets   int       `json:"assets" yaml:"assets"`
	Problems []Problem `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <assets-dir>",
		Short: "Check that every catalog entry resolves to a readable file",
		Long: `Load the catalog the way the game does and check that every resolved
asset path exists and is a regular file. A missing file would stop the game
the first time the asset is requested.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd.OutOrStdout())
		},
	}
}

func runValidate(opts *RootOptions, dir string, w io.Writer) error {
	cat, err := loadCatalog(opts, dir)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: true, Assets: cat.Len()}
	for _, e := range cat.Entries() {
		info, err := os.Stat(e.Path)
		switch {
		case err != nil:
			result.Problems = append(result.Problems, Problem{ID: e.ID, Name: e.Name, Path: e.Path, Message: err.Error()})
		case !info.Mode().IsRegular():
			result.Problems = append(result.Problems, Problem{ID: e.ID, Name: e.Name, Path: e.Path, Message: "not a regular file"})
		}
	}
	result.Valid = len(result.Problems) == 0

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	err = f.Write(result, func(w io.Writer) error {
		for _, p := range result.Problems {
			_, err := fmt.Fprintf(w, "%4d  %s\n%s\n", p.ID, p.Name, display.Block(p.Message, opts.Width, 6))
			if err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "%d assets, %d problems\n", result.Assets, len(result.Problems))
		return err
	})
	if err != nil {
		return err
	}

	if !result.Valid {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d of %d assets are missing", len(result.Problems), result.Assets)}
	}
	return nil
}
