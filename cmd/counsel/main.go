package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JaimeStill/counsel/pkg/llm"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env not loaded:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		stop()
		os.Exit(1)
	}
}

// describe turns model timeouts into advice; other errors print as is.
func describe(err error) string {
	if llm.IsTimeout(err) {
		return "the model request timed out. The document may be too large for one request; " +
			"try lowering extraction.request_budget or raising the extractor timeout. (" + err.Error() + ")"
	}
	return err.Error()
}
