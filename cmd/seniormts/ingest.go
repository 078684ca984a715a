package main

import (
	"fmt"
	"log"
	"sort"

	"github.com/spf13/cobra"

	"github.com/seniormts/seniormts/config"
	srv "github.com/seniormts/seniormts/internal/server"
)

func ingestCMD() *cobra.Command {
	var namespaces []string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild namespace corpora: fit sparse encoders and upsert chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			embedder, err := srv.NewEmbedder(cfg)
			if err != nil {
				return err
			}
			store, admin, err := srv.NewVectorStore(cfg)
			if err != nil {
				return err
			}
			logger := log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
			pipeline, err := srv.NewIngestPipeline(cfg, embedder, store, admin, logger)
			if err != nil {
				return err
			}

			targets := namespaces
			if len(targets) == 0 {
				for ns := range cfg.Ingest.Namespaces {
					targets = append(targets, ns)
				}
				sort.Strings(targets)
			}
			for _, ns := range targets {
				stats, err := pipeline.Run(cmd.Context(), ns)
				if err != nil {
					return fmt.Errorf("namespace %s: %w", ns, err)
				}
				logger.Printf("namespace=%s documents=%d kept=%d/%d upserted=%d encoder=%s elapsed=%s",
					ns, stats.Documents, stats.Kept, stats.Chunks, stats.Upserted, stats.EncoderPath, stats.Elapsed)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&namespaces, "namespace", nil, "namespaces to ingest (default: all configured)")
	return cmd
}
