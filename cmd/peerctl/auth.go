package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/transferpeer/peerconnect/internal/models"
)

type sessionOutput struct {
	UserID models.UserID `json:"userId"`
	Email  string        `json:"email"`
	Role   models.Role   `json:"role"`
	Home   models.Page   `json:"home"`
}

func (a *app) renderSession(s models.Session) error {
	out := sessionOutput{UserID: s.UserID, Email: s.Email, Role: s.Role, Home: models.HomePage(s.Role)}
	return a.render(out, func(w io.Writer) error {
		fmt.Fprintf(w, "User ID:\t%s\n", out.UserID)
		fmt.Fprintf(w, "Email:\t%s\n", out.Email)
		fmt.Fprintf(w, "Role:\t%s\n", out.Role)
		return nil
	})
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check credentials against the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.login(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderSession(ctrl.View().Session)
		},
	}
}

func newSignupCmd(a *app) *cobra.Command {
	var fields models.ProfileFields
	var role string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create a student or mentor account.

Examples:
  peerctl signup --email ann@kean.edu --password secret --name Ann \
    --school "Kean University" --area-of-study "Computer Science"
  peerctl signup --email bo@rowan.edu --password secret --role mentor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.controller()
			if err != nil {
				return err
			}
			fields.Role = models.ParseRole(role)
			sess, err := ctrl.Authenticate(cmd.Context(), models.AuthModeSignup, a.credentials(), fields)
			if err != nil {
				return failure(ctrl, err)
			}
			return a.renderSession(sess)
		},
	}

	cmd.Flags().StringVar(&fields.Name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleStudent), "Student or Mentor")
	cmd.Flags().StringVar(&fields.School, "school", "", "current school")
	cmd.Flags().StringVar(&fields.PreviousSchool, "previous-school", "", "school attended before transferring")
	cmd.Flags().StringVar(&fields.AreaOfStudy, "area-of-study", "", "field of study")
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	var next string

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.login(cmd.Context())
			if err != nil {
				return err
			}
			if err := ctrl.ChangePassword(cmd.Context(), a.credentials().Password, next); err != nil {
				return failure(ctrl, err)
			}
			fmt.Fprintln(a.out, "Password updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&next, "new-password", "", "the new password")
	_ = cmd.MarkFlagRequired("new-password")
	return cmd
}
