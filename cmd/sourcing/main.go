package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/maltedev/sourcing-triads/internal/cli"
)

func main() {
	cli.Execute()
}
