package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trivia-quiz/internal/domain"
)

const recentHistory = 8

// NewHistoryCmd prints the recorded quiz results, most recent first.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past quiz results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, _, err := loadRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			entries := rt.service.History(ctx)
			if !all && len(entries) > recentHistory {
				entries = entries[:recentHistory]
			}
			return renderHistory(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "show every recorded result")
	return cmd
}

func renderHistory(w io.Writer, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No quizzes played yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTOPIC\tDIFFICULTY\tSCORE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d (%d%%)\n", e.Date, e.Topic, e.Difficulty, e.Score, e.Total, e.Percent)
	}
	return tw.Flush()
}
