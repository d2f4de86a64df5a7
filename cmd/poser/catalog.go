package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"poser-sync/internal/skeleton"
)

func newCatalogCommand(opts *rootOptions) *cobra.Command {
	var category string
	var suggest string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the joint catalog",
		Args:  cobra.NoArgs,
		Example: `  poser catalog --category body
  poser catalog --suggest mchst`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if suggest != "" {
				for _, name := range cat.Suggest(suggest, 5) {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			var filter skeleton.Category
			if category != "" {
				c, ok := skeleton.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				filter = c
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPARENT\tMIRROR\tDEPTH\tREMAP")
			for _, jd := range cat.Joints() {
				if category != "" && jd.Category != filter {
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
					jd.ID, jd.Name, jd.Category,
					dash(cat.Name(jd.Parent)), dash(jd.MirrorName),
					cat.Depth(jd.ID), jd.Remap)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list joints in this category")
	cmd.Flags().StringVar(&suggest, "suggest", "", "Print joint names close to this one")

	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
