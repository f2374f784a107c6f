package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/coursemarket/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{build: app.New}
	if err := newCLI(r).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "coursectl:", err)
		stop()
		os.Exit(1)
	}
}
