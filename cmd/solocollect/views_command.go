package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newViewsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "views",
		Short: "List saved analysis views",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			views, err := st.ListAnalysisViews(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No analysis views saved.")
				return nil
			}

			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{
					strconv.FormatInt(view.ID, 10),
					view.Name,
					view.ViewType,
					formatSeasons(view.Seasons),
					view.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Type", "Seasons", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of views (0 = all)")
	cmd.AddCommand(newViewShowCommand(ctx))

	return cmd
}

func newViewShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <view-id>",
		Short: "Show one analysis view with its scored videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid view id %q", args[0])
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			view, items, err := st.GetAnalysisView(cmd.Context(), viewID)
			if err != nil {
				return err
			}
			if view == nil {
				return fmt.Errorf("view %d not found", viewID)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", view.Name, view.ViewType)
			if view.Query != "" {
				fmt.Fprintf(out, "Query: %s\n", view.Query)
			}
			fmt.Fprintf(out, "Seasons: %s, created %s\n",
				formatSeasons(view.Seasons), view.CreatedAt.Local().Format("2006-01-02 15:04"))

			if len(items) == 0 {
				fmt.Fprintln(out, "No items in this view.")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				title := item.Title
				if title == "" {
					title = item.VideoID
				}
				rows = append(rows, []string{
					fmt.Sprintf("%.3f", item.Score),
					formatNumber(item.Season),
					formatNumber(item.Episode),
					truncateCell(title, 50),
					truncateCell(item.Reason, 40),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Score", "Season", "Ep", "Video", "Reason"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
