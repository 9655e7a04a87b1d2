// Command treeid is the command-line client: it identifies trees from
// photos, keeps the local sighting history and records tree locations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/nativetree/pkg/logger"
)

func main() {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := &settings{}
	err := rootCommand(s).ExecuteContext(ctx)
	if cerr := s.close(); cerr != nil {
		logger.Get().Warn(ctx, "failed to close client", logger.Error(cerr))
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}
