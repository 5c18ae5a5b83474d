package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
