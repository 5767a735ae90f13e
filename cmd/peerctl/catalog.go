package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "catalog [colleges|fields]",
		Short:     "List the colleges and fields of study offered by the client",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"colleges", "fields"},
		RunE: func(_ *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}

			kind := ""
			if len(args) == 1 {
				kind = args[0]
			}

			switch kind {
			case "colleges":
				return a.renderList(cat.Colleges())
			case "fields":
				return a.renderList(cat.FieldsOfStudy())
			}

			out := struct {
				Colleges      []string `json:"colleges"`
				FieldsOfStudy []string `json:"fieldsOfStudy"`
			}{cat.Colleges(), cat.FieldsOfStudy()}

			return a.render(out, func(w io.Writer) error {
				fmt.Fprintln(w, "Colleges:")
				for _, c := range out.Colleges {
					fmt.Fprintf(w, "  %s\n", c)
				}
				fmt.Fprintln(w, "Fields of study:")
				for _, f := range out.FieldsOfStudy {
					fmt.Fprintf(w, "  %s\n", f)
				}
				return nil
			})
		},
	}
}

func (a *app) renderList(items []string) error {
	return a.render(items, func(w io.Writer) error {
		for _, item := range items {
			fmt.Fprintln(w, item)
		}
		return nil
	})
}
