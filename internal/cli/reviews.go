package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newReviewsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Inspect and remove pending reviews",
	}
	cmd.AddCommand(newReviewsListCmd(flags))
	cmd.AddCommand(newReviewsShowCmd(flags))
	cmd.AddCommand(newReviewsDeleteCmd(flags))
	return cmd
}

func newReviewsListCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending reviews with the attributes they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.config()
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, cfg, newLogger(cmd, cfg))
			if err != nil {
				return runtimeErr(err)
			}
			defer rt.Close()

			items, err := rt.reviews.List(ctx)
			if err != nil {
				return runtimeErr(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				reviews := make([]any, 0, len(items))
				for _, item := range items {
					reviews = append(reviews, item.Review)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reviews)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GUID\tCARD\tBRANCH\tCHANGED")
			for _, item := range items {
				changed := ""
				for _, row := range item.Rows {
					if !row.Changed {
						continue
					}
					if changed != "" {
						changed += ","
					}
					changed += row.Label
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", item.GUID, item.Card.ID, item.Review.Branch, changed)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reviews as JSON")
	return cmd
}

func newReviewsShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <guid>",
		Short: "Print one review as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.config()
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, cfg, newLogger(cmd, cfg))
			if err != nil {
				return runtimeErr(err)
			}
			defer rt.Close()

			r, err := rt.reviews.Get(ctx, args[0])
			if err != nil {
				return runtimeErr(err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		},
	}
}

func newReviewsDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <guid>",
		Short: "Remove a pending review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.config()
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, cfg, newLogger(cmd, cfg))
			if err != nil {
				return runtimeErr(err)
			}
			defer rt.Close()

			if err := rt.reviews.Delete(ctx, args[0]); err != nil {
				return runtimeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
