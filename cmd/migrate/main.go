// Command migrate applies the embedded SQL migrations up or down.
package main

import (
	"flag"
	"log"

	"prismtrack/backend/internal/config"
	"prismtrack/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", `migration direction: "up" or "down"`)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("config: DATABASE_URL must be set")
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		log.Fatalf("migrate %s: %v", *direction, err)
	}
	log.Printf("migrations %s complete", *direction)
}
