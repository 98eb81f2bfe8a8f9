package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ploomesterm/internal/crm"
	"ploomesterm/internal/models"
)

type searchFlags struct {
	fields models.SearchFields
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.fields.Name, "name", "", "name contains")
	cmd.Flags().StringVar(&f.fields.Email, "email", "", "email contains")
	cmd.Flags().StringVar(&f.fields.Phone, "phone", "", "phone number (up to 11 characters matches the search number)")
	cmd.Flags().StringVar(&f.fields.Owner, "owner", "", "owner name equals")
}

func newFilterCmd() *cobra.Command {
	var (
		search      searchFlags
		query       bool
		page        int
		expandOwner bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the OData filter built from search fields",
		Long: `Print the $filter expression the contact list would send for the given search fields.
With --query the whole query string of a page read is printed instead.`,
		Args: cobra.NoArgs,
		// Pure query building, no config or credential needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		PersistentPostRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			if query {
				fmt.Fprintln(cmd.OutOrStdout(), crm.ListQuery(crm.PageOptions(search.fields, page, expandOwner)))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), crm.BuildFilter(search.fields))
			return nil
		},
	}

	search.register(cmd)
	cmd.Flags().BoolVar(&query, "query", false, "print the full list query string")
	cmd.Flags().IntVar(&page, "page", 1, "page number for --query")
	cmd.Flags().BoolVar(&expandOwner, "expand-owner", false, "expand Owner in --query")
	return cmd
}
