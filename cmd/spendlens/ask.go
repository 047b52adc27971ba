package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/orchestrator"
	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:          "ask <question>",
		Short:        "Ask one question from the command line",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			controller, handle, err := buildController(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = handle.Close(closeCtx)
			}()

			question := strings.Join(args, " ")
			resp, err := controller.Run(cmd.Context(), question, nil, cfg.Mongo.Collection)
			if err != nil {
				return fmt.Errorf("answer question: %w", err)
			}

			if asJSON {
				out, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response envelope as JSON")
	return cmd
}

func printResponse(resp orchestrator.Response) {
	switch resp.Status {
	case orchestrator.StatusNeedsClarification:
		fmt.Println(resp.ClarifyingQuestion)
	default:
		fmt.Println(resp.Answer)
	}
	if len(resp.SuggestedQuestions) > 0 {
		fmt.Println("\nYou could also ask:")
		for _, q := range resp.SuggestedQuestions {
			fmt.Printf("  - %s\n", q)
		}
	}
}
