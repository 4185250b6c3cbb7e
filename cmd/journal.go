package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lectern/internal/store"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect recorded session events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		user, _ := cmd.Flags().GetString("user")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QuerySessionEvents(context.Background(), store.QueryOpts{Limit: limit, UserID: user})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No session events found.")
			return nil
		}

		fmt.Printf("%-6s  %-19s  %-20s  %-18s  %-14s  %-12s  %s\n",
			"Seq", "Timestamp", "User", "Action", "Lesson", "State", "Seg")
		fmt.Println(strings.Repeat("─", 104))
		for _, e := range events {
			fmt.Printf("%-6d  %-19s  %-20s  %-18s  %-14s  %-12s  %d\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.UserID, 20),
				e.Action,
				truncate(e.LessonID, 14),
				e.State,
				e.SegmentIdx,
			)
		}
		return nil
	},
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the journal per user",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.EventRepo().SessionStats(context.Background())
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No sessions recorded yet.")
			return nil
		}

		fmt.Printf("%-42s  %-14s  %6s  %8s  %7s  %s\n", "User", "Last lesson", "Events", "Segments", "Lessons", "Last seen")
		fmt.Println(strings.Repeat("─", 104))
		for _, st := range stats {
			fmt.Printf("%-42s  %-14s  %6d  %8d  %7d  %s\n",
				st.UserID, truncate(st.LessonID, 14), st.Events, st.SegmentsCompleted,
				st.LessonsCompleted, st.LastSeen.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	journalCmd.Flags().IntP("limit", "n", 50, "Number of events to show")
	journalCmd.Flags().StringP("user", "u", "", "Only show events for this user id")
	journalCmd.AddCommand(journalStatsCmd)
}
