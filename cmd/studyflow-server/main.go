package main

import (
	"log"
	"os"

	"github.com/studyflow/studyflow/internal/server"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	dbPath := os.Getenv("STUDYFLOW_DB")
	if dbPath == "" {
		var err error
		dbPath, err = server.DefaultDBPath()
		if err != nil {
			log.Fatalf("Failed to resolve database path: %v", err)
		}
	}

	srv, err := server.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
	}()

	log.Printf("StudyFlow server starting on :%s", port)
	if err := srv.Start(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
