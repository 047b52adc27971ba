package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spendlens/spendlens/internal/ingest"
	"github.com/spendlens/spendlens/internal/mongodb"
	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	var skipIndexes bool
	cmd := &cobra.Command{
		Use:          "ingest <csv-file>",
		Short:        "Load a purchase order CSV into the document store",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			handle := mongodb.NewHandle(cfg.Mongo.URI)
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = handle.Close(closeCtx)
			}()
			client, err := handle.Client()
			if err != nil {
				return err
			}
			coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)

			loader := ingest.NewLoader(coll)
			inserted, err := loader.Run(cmd.Context(), f)
			if err != nil {
				return err
			}
			if !skipIndexes {
				if err := loader.EnsureIndexes(cmd.Context()); err != nil {
					return err
				}
			}

			fmt.Printf("Inserted %d documents into %s.%s\n", inserted, cfg.Mongo.Database, cfg.Mongo.Collection)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipIndexes, "skip-indexes", false, "do not create indexes after loading")
	return cmd
}
