package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trivia-quiz/internal/app"
)

// NewTopicsCmd lists the topics the question source offers.
func NewTopicsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List available quiz topics",
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

			topics, err := rt.service.Topics(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", app.UserMessage(err), err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTOPIC")
			fmt.Fprintln(tw, "0\tAny")
			for _, topic := range topics {
				fmt.Fprintf(tw, "%d\t%s\n", topic.ID, topic.Name)
			}
			return tw.Flush()
		},
	}
}
