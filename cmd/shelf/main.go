package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/shelfhq/shelf/cmd/shelf/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := command.NewRoot().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "shelf:", command.Describe(err))
		stop()
		os.Exit(1)
	}
}
