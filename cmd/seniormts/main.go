package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Provider keys usually live in a local .env during development.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "seniormts",
		Short: "Retrieval-augmented stock chat agent for senior investors",
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (default searches ./config and .)")
	root.AddCommand(serveCMD(), ingestCMD(), chatCMD())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
