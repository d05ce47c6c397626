package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hrdemo/company/pkg/company"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := company.Main(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "company:", err)
		stop()
		os.Exit(1)
	}
}
