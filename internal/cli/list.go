package cli

import (
	"fmt"
	"io"

	"github.com/pixil98/go-orbis/internal/catalog"
	"github.com/pixil98/go-orbis/internal/display"
	"github.com/pixil98/go-orbis/internal/resource"
	"github.com/spf13/cobra"
)

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list <assets-dir>",
		Short: "List catalog entries in id order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], kind, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only list assets of this kind")

	return cmd
}

func runList(opts *RootOptions, dir string, kindName string, w io.Writer) error {
	cat, err := loadCatalog(opts, dir)
	if err != nil {
		return err
	}

	entries := cat.Entries()
	if kindName != "" {
		kind, err := resource.ParseKind(kindName)
		if err != nil {
			return WrapExitError(ExitCommandError, "filtering by kind", err)
		}
		filtered := make([]catalog.Entry, 0, len(entries))
		for _, id := range cat.IDs(kind) {
			e, _ := cat.Entry(id)
			filtered = append(filtered, e)
		}
		entries = filtered
	}

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	return f.Write(entries, func(w io.Writer) error {
		for _, e := range entries {
			_, err := fmt.Fprintf(w, "%4d  %-10s  %-24s  %s\n", e.ID, display.Label(e.Kind.String()), e.Name, e.Path)
			if err != nil {
				return err
			}
			if e.Description != "" {
				_, err = fmt.Fprintln(w, display.Block(e.Description, opts.Width, 6))
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func loadCatalog(opts *RootOptions, dir string) (*catalog.Catalog, error) {
	root := opts.Root
	if root == "" {
		root = dir
	}

	cat, err := catalog.Load(dir, root)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("loading catalog %s", dir), err)
	}
	return cat, nil
}
