package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ploomesterm/internal/contacts"
	"ploomesterm/internal/models"
	"ploomesterm/internal/utils"
)

func newContactsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"c"},
		Short:   "List, create, update and delete contacts without the interactive view",
	}

	cmd.AddCommand(
		newContactsListCmd(c),
		newContactsCreateCmd(c),
		newContactsUpdateCmd(c),
		newContactsDeleteCmd(c),
	)
	return cmd
}

func (c *cli) controller() *contacts.Controller {
	return contacts.NewController(c.client, c.session, contacts.Options{
		ExpandOwner: c.config.ExpandOwner,
		Logger:      c.logger,
	})
}

func newContactsListCmd(c *cli) *cobra.Command {
	var (
		search searchFlags
		pages  int
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts, 30 per page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := c.controller()

			if err := ctrl.OnFilterChange(ctx, search.fields); err != nil {
				return err
			}
			for all || ctrl.Snapshot().Page < pages {
				issued, err := ctrl.OnScrollNearBottom(ctx)
				if err != nil {
					return err
				}
				if !issued {
					break
				}
			}

			state := ctrl.Snapshot()
			writeContacts(cmd.OutOrStdout(), state.Contacts)

			more := ""
			if state.HasMore {
				more = " (more available, use --pages or --all)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", utils.FormatCount(len(state.Contacts), "contact"), more)
			return nil
		},
	}

	search.register(cmd)
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to read")
	cmd.Flags().BoolVar(&all, "all", false, "read every page")
	return cmd
}

func writeContacts(w io.Writer, list []models.Contact) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No contacts found.")
		return
	}

	rows := make([][]string, 0, len(list))
	for _, contact := range list {
		rows = append(rows, []string{
			strconv.FormatInt(contact.ID, 10),
			contact.Name,
			contact.Email,
			contact.DisplayPhone(),
			contact.DisplayOwner(),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Email", "Phone", "Owner").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

type draftFlags struct {
	name    string
	email   string
	phone   string
	ownerID string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "contact name")
	cmd.Flags().StringVar(&f.email, "email", "", "contact email")
	cmd.Flags().StringVar(&f.phone, "phone", "", "primary phone number")
	cmd.Flags().StringVar(&f.ownerID, "owner-id", "", "owner user id")
}

// values returns the fields whose flags were given on the command line.
func (f *draftFlags) values(cmd *cobra.Command) map[models.Field]string {
	given := make(map[models.Field]string)
	set := func(flag string, field models.Field, value string) {
		if cmd.Flags().Changed(flag) {
			given[field] = value
		}
	}

	set("name", models.FieldName, f.name)
	set("email", models.FieldEmail, f.email)
	set("phone", models.FieldPhone, f.phone)
	set("owner-id", models.FieldOwner, f.ownerID)
	return given
}

func newContactsCreateCmd(c *cli) *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			panel := contacts.NewCreatePanel(c.client, c.session, nil, c.logger)
			panel.Open()
			for field, value := range flags.values(cmd) {
				panel.SetField(field, value)
			}

			created, err := panel.Submit(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Contact successfully created!")
			if created != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Id: %d\n", created.ID)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newContactsUpdateCmd(c *cli) *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a contact",
		Long:  "Only fields that differ from the stored contact are sent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ctrl := c.controller()
			if err := findContact(ctx, ctrl, id); err != nil {
				return err
			}

			ctrl.BeginEdit(id)
			for field, value := range flags.values(cmd) {
				ctrl.SetEditField(field, value)
			}

			sent, err := ctrl.CommitEdit(ctx, id)
			if err != nil {
				return err
			}
			if !sent {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing changed.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Contact updated successfully.")
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newContactsDeleteCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ctrl := c.controller()
			if err := findContact(ctx, ctrl, id); err != nil {
				return err
			}

			var confirm contacts.Confirmer = contacts.Confirmed(true)
			if !yes {
				confirm = promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			deleted, err := ctrl.DeleteContact(ctx, id, confirm)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			c.logger.Info("contact deleted", zap.Int64("id", id))
			fmt.Fprintln(cmd.OutOrStdout(), "Contact deleted successfully.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func promptConfirmer(in io.Reader, out io.Writer) contacts.ConfirmFunc {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		answer, _ := bufio.NewReader(in).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

// findContact pages through the list until the contact is loaded.
func findContact(ctx context.Context, ctrl *contacts.Controller, id int64) error {
	if err := ctrl.FetchPage(ctx, 1); err != nil {
		return err
	}
	for {
		if _, ok := ctrl.Contact(id); ok {
			return nil
		}
		issued, err := ctrl.OnScrollNearBottom(ctx)
		if err != nil {
			return err
		}
		if !issued {
			return fmt.Errorf("contact %d: %w", id, contacts.ErrContactNotFound)
		}
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid contact id %q", arg)
	}
	return id, nil
}
