// Package main implements the entry point for the taskboard API server,
// which drives the task and sprint lifecycle, notification fan-out,
// statistics and time tracking for project teams.
package main

import (
	"log"
)

// main is the entry point for the taskboard-api server. It initializes
// configuration, logging, the database, background workers and the HTTP
// server, then blocks until shutdown.
func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
