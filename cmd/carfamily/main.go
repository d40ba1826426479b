package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	if err := Run(os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}
