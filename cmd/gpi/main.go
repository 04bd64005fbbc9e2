package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/gpi/internal/cli"
)

func main() {
	// Until the root command configures logging from flags and config.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
