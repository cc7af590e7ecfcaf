package main

import (
	"os"

	"github.com/joho/godotenv"

	bibwebcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb"
)

func main() {
	// A .env next to the workspace may carry BIBWEB_* and AWS_* settings.
	_ = godotenv.Load()

	cmd := bibwebcmder.NewBibWebCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
