package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"solocollect/internal/store"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var seasonsFlag []int
	var transcriptsOnly bool
	var mainOnly bool
	var limitFlag int
	var summaryFlag bool

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List collected videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if summaryFlag {
				return printSeasonSummaries(cmd, st, seasonsFlag)
			}

			filter := store.VideoFilter{
				Seasons:  seasonsFlag,
				MainOnly: mainOnly,
				Limit:    limitFlag,
			}
			if transcriptsOnly {
				yes := true
				filter.TranscriptOnly = &yes
			}
			videos, err := st.GetVideos(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(videos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No videos collected yet.")
				return nil
			}

			rows := make([][]string, 0, len(videos))
			for _, video := range videos {
				rows = append(rows, []string{
					formatNumber(video.Season),
					formatNumber(video.Episode),
					truncateCell(video.Title, 60),
					string(video.TranscriptStatus),
					video.UploadDate,
					strconv.FormatInt(video.ViewCount, 10),
					video.Source,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Season", "Ep", "Title", "Transcript", "Uploaded", "Views", "Source"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(cmd.OutOrStdout(), "%d videos\n", len(videos))
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&seasonsFlag, "seasons", nil, "Restrict to these season numbers")
	cmd.Flags().BoolVar(&transcriptsOnly, "transcripts-only", false, "Only videos with a collected transcript")
	cmd.Flags().BoolVar(&mainOnly, "main-only", false, "Only main-series videos (exclude spinoffs)")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum number of rows (0 = all)")
	cmd.Flags().BoolVar(&summaryFlag, "summary", false, "Show per-season aggregates instead of rows")

	return cmd
}

func printSeasonSummaries(cmd *cobra.Command, st *store.Store, seasons []int) error {
	summaries, err := st.SeasonSummaries(cmd.Context(), seasons)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No seasons collected yet.")
		return nil
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			strconv.Itoa(s.Season),
			strconv.Itoa(s.TotalVideos),
			strconv.Itoa(s.TranscriptSuccess),
			fmt.Sprintf("%.4f", s.AvgEngagement),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Season", "Videos", "Transcripts", "Engagement"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}

func formatNumber(value int) string {
	if value == 0 {
		return "-"
	}
	return strconv.Itoa(value)
}

func truncateCell(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
