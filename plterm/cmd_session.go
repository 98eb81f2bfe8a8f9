package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ploomesterm/internal/utils"
)

func newLoginCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "login <user-key>",
		Short: "Store the User-Key used for every CRM request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.session.SignIn(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "UserKey saved (%s)\n", utils.MaskSecret(c.session.UserKey()))
			return nil
		},
	}
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Aliases: []string{"leave"},
		Short:   "Forget the stored User-Key",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.session.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "UserKey removed")
			return nil
		},
	}
}

func newThemeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "toggle"
			if len(args) == 1 {
				mode = args[0]
			}

			var err error
			switch mode {
			case "light":
				err = c.session.SetDarkMode(false)
			case "dark":
				err = c.session.SetDarkMode(true)
			case "toggle":
				_, err = c.session.ToggleDarkMode()
			default:
				return fmt.Errorf("unknown theme %q: use light, dark or toggle", mode)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", themeName(c.session.DarkMode()))
			return nil
		},
	}
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
