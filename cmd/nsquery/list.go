package main

import (
	"encoding/json"
	"fmt"

	"github.com/Aleph-Alpha/vdbclient/v1/paginate"
	"github.com/spf13/cobra"
)

type listOptions struct {
	namespace string
	pageSize  int
	cursor    string
}

func newListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every record ID of a namespace",
		Long: `Walk the ID listing of one namespace page by page, one ID per line.

When a page fails the command prints the cursor to resume from, so a long
walk can continue where it stopped:

  nsquery list --namespace acme --cursor <cursor>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(root)
			if err != nil {
				return err
			}
			defer s.Close()

			w := s.backend.IDs(opts.namespace,
				paginate.WithPageSize(opts.pageSize),
				paginate.WithCursor(opts.cursor),
			)
			out := cmd.OutOrStdout()
			for ids, err := range w.Pages(cmd.Context()) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "resume with --cursor %q\n", w.Cursor())
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.namespace, "namespace", "", "namespace to list")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 100, "IDs per page")
	cmd.Flags().StringVar(&opts.cursor, "cursor", "", "resume from this cursor")
	return cmd
}

func newImportsCmd(root *rootOptions) *cobra.Command {
	var pageSize int
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List the bulk imports of a Pinecone index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(root)
			if err != nil {
				return err
			}
			defer s.Close()

			lister, ok := s.backend.(importLister)
			if !ok {
				return fmt.Errorf("backend %s has no bulk imports", s.cfg.Backend)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for imp, err := range lister.Imports(paginate.WithPageSize(pageSize)).Items(cmd.Context()) {
				if err != nil {
					return err
				}
				if err := enc.Encode(imp); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "imports per page (default from the server)")
	return cmd
}
