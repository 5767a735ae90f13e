package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/transferpeer/peerconnect/internal/models"
)

func (a *app) renderDraft(d models.ProfileDraft) error {
	return a.render(d, func(w io.Writer) error {
		fmt.Fprintf(w, "Name:\t%s\n", orDash(d.Name))
		fmt.Fprintf(w, "Email:\t%s\n", orDash(d.Email))
		fmt.Fprintf(w, "Role:\t%s\n", orDash(d.Role))
		fmt.Fprintf(w, "Current school:\t%s\n", orDash(d.CurrentSchool))
		fmt.Fprintf(w, "Previous school:\t%s\n", orDash(d.PreviousSchool))
		fmt.Fprintf(w, "Field of study:\t%s\n", orDash(d.FieldOfStudy))
		fmt.Fprintf(w, "Bio:\t%s\n", orDash(d.Bio))
		return nil
	})
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the account profile",
	}
	cmd.AddCommand(newProfileShowCmd(a), newProfileSaveCmd(a))
	return cmd
}

func newProfileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.login(cmd.Context())
			if err != nil {
				return err
			}
			draft, err := ctrl.OpenProfile(cmd.Context())
			if err != nil {
				return failure(ctrl, err)
			}
			return a.renderDraft(draft)
		},
	}
}

// profileFlags maps flag names onto draft fields
var profileFlags = []struct {
	name  string
	usage string
	field func(d *models.ProfileDraft) *string
}{
	{"name", "display name", func(d *models.ProfileDraft) *string { return &d.Name }},
	{"email-address", "profile email", func(d *models.ProfileDraft) *string { return &d.Email }},
	{"current-school", "current school", func(d *models.ProfileDraft) *string { return &d.CurrentSchool }},
	{"previous-school", "previous school", func(d *models.ProfileDraft) *string { return &d.PreviousSchool }},
	{"field-of-study", "field of study", func(d *models.ProfileDraft) *string { return &d.FieldOfStudy }},
	{"bio", "short biography", func(d *models.ProfileDraft) *string { return &d.Bio }},
}

func newProfileSaveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Update profile fields and save",
		Long: `Load the stored profile, replace the fields given as flags and save it.
Fields without a flag keep their stored value.

Example:
  peerctl profile save --current-school "Rowan University" --bio "Hi"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.login(cmd.Context())
			if err != nil {
				return err
			}
			draft, err := ctrl.OpenProfile(cmd.Context())
			if err != nil {
				return failure(ctrl, err)
			}

			for _, f := range profileFlags {
				if cmd.Flags().Changed(f.name) {
					value, _ := cmd.Flags().GetString(f.name)
					*f.field(&draft) = value
				}
			}

			if err := ctrl.EditProfile(draft); err != nil {
				return failure(ctrl, err)
			}
			if err := ctrl.SaveProfile(cmd.Context()); err != nil {
				return failure(ctrl, err)
			}
			return a.renderDraft(draft)
		},
	}

	for _, f := range profileFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
	return cmd
}
