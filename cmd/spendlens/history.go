package main

import (
	"fmt"

	"github.com/spendlens/spendlens/internal/history"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:          "history",
		Short:        "Show recent question/answer exchanges",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.HistoryPath == "" {
				return fmt.Errorf("history persistence is disabled (history_path is empty)")
			}

			db, err := history.Open(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer db.Close()

			exchanges, err := history.NewStore(db).Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(exchanges) == 0 {
				fmt.Println("No exchanges recorded yet.")
				return nil
			}
			for _, ex := range exchanges {
				fmt.Printf("[%s] %s\n  Q: %s\n", ex.CreatedAt.Format("2006-01-02 15:04"), ex.Status, ex.Question)
				if ex.Answer != "" {
					fmt.Printf("  A: %s\n", ex.Answer)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of exchanges to show")
	return cmd
}
