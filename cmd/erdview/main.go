// Package main provides the erdview CLI.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/koustreak/erdview/internal/cli"

	// Register the database dialects.
	_ "github.com/koustreak/erdview/internal/catalog/mysql"
	_ "github.com/koustreak/erdview/internal/catalog/postgres"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
