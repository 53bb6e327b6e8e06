package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/deckprep/backend/bootstrap"
	"github.com/deckprep/backend/config"
	"github.com/deckprep/backend/segment"
)

func main() {
	defer segment.CloseClient()

	r, err := bootstrap.Bootstrap()
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	port := config.GetPort()
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
