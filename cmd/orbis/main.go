package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/pixil98/go-orbis/cmd/orbis/command"
	"github.com/pixil98/go-orbis/internal/loader"
	"github.com/pixil98/go-service"
)

func main() {
	app, err := service.NewApp(&command.Config{}, command.BuildWorkers)
	if err != nil {
		slog.Error("creating application", "error", err)
		os.Exit(1)
	}

	err = app.Run(context.Background())
	if err != nil {
		var loadErr *loader.LoadError
		if errors.As(err, &loadErr) {
			slog.Error("missing game data", "kind", loadErr.Kind, "id", loadErr.ID, "path", loadErr.Path)
		}
		slog.Error("running application", "error", err)
		os.Exit(1)
	}

	slog.Info("exiting")
}
