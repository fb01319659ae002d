package main

import (
	"log"

	"github.com/dsavelev/notesapi/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize the application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application terminated with an error: %v", err)
	}
}
