package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/transferpeer/peerconnect/internal/models"
)

func newSearchCmd(a *app) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find mentors at a target university",
		Long: `Store the target university on the student account and list the matching mentors.
Only student accounts can search.

Example:
  peerctl search --target "Rutgers University New Brunswick"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.login(cmd.Context())
			if err != nil {
				return err
			}
			mentors, err := ctrl.SearchMentors(cmd.Context(), target)
			if err != nil {
				return failure(ctrl, err)
			}
			return a.renderMentors(target, mentors)
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "target university (see 'peerctl catalog colleges')")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func (a *app) renderMentors(target string, mentors []models.MentorResult) error {
	return a.render(mentors, func(w io.Writer) error {
		if len(mentors) == 0 {
			fmt.Fprintf(w, "No mentors found for %s\n", target)
			return nil
		}
		fmt.Fprintln(w, "NAME\tEMAIL\tUNIVERSITY\tAREA OF STUDY\tPREVIOUS SCHOOL")
		for _, m := range mentors {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				orDash(m.Name), orDash(m.Email), orDash(m.University), orDash(m.AreaOfStudy), orDash(m.PreviousSchool))
		}
		return nil
	})
}
