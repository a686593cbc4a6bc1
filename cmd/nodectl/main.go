// Command nodectl inspects WhatsApp templates and compiles or sends template
// messages from the command line, using the same configuration as the server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"nodebridge/internal/config"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd(config.Load).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
