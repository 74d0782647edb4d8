package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	rootCmd := newRootCmd(&options{
		baseURL: envOr("FUNDSBOOK_URL", "http://localhost:8080"),
		token:   os.Getenv("FUNDSBOOK_TOKEN"),
		timeout: 10 * time.Second,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
