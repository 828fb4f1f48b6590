package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"milk-ledger/internal/adapters/cli"
	"milk-ledger/internal/adapters/repl"
	"milk-ledger/internal/app"
	"milk-ledger/internal/config"
	"milk-ledger/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	agent := app.NewInterpreter(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if agent == nil {
		log.Println("Warning: OPENAI_API_KEY is not set, assistant disabled")
	}
	svc := app.NewAppService(app.NewServices(st), agent, app.Operator{})

	if len(os.Args) > 1 {
		if err := cli.Run(ctx, svc, os.Args[1:], os.Stdin, os.Stdout); err != nil {
			closeStore()
			log.Fatal(err)
		}
		return
	}

	repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout)
}
