package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seniormts/seniormts/config"
	srv "github.com/seniormts/seniormts/internal/server"
	"github.com/seniormts/seniormts/session"
	inmemory_session "github.com/seniormts/seniormts/session/inmemory"
)

func chatCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent on the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			llm, err := srv.NewLLM(cfg)
			if err != nil {
				return err
			}
			embedder, err := srv.NewEmbedder(cfg)
			if err != nil {
				return err
			}
			store, _, err := srv.NewVectorStore(cfg)
			if err != nil {
				return err
			}
			retrievers, err := srv.NewRetrievers(cfg, embedder, store,
				log.New(log.Writer(), "[RETRIEVER] ", log.LstdFlags))
			if err != nil {
				return err
			}
			ag, err := srv.NewAgent(cfg, llm, retrievers,
				log.New(log.Writer(), "[AGENT] ", log.LstdFlags))
			if err != nil {
				return err
			}

			sessions := inmemory_session.New()
			const sessionID = "terminal"
			ctx := cmd.Context()
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Println("질문을 입력하세요. 종료하려면 빈 줄을 입력하세요.")
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					return nil
				}
				history, err := sessions.Get(ctx, sessionID)
				if err != nil {
					return err
				}
				output, err := ag.Run(ctx, history, input)
				if err != nil {
					return err
				}
				fmt.Println(output)
				now := time.Now()
				if err := sessions.Append(ctx, sessionID,
					session.Message{Role: session.RoleUser, Content: input, CreatedAt: now},
					session.Message{Role: session.RoleAssistant, Content: output, CreatedAt: now},
				); err != nil {
					return err
				}
			}
		},
	}
}
