// Package main provides the fieldres command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/fieldres/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "fieldres:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
