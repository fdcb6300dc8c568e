// Command migrate applies the SQL files under internal/database/migrations
// in lexical order. Each file may contain multiple statements separated by
// semicolons. The command is idempotent: every migration uses
// CREATE TABLE IF NOT EXISTS.
package main

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cinecritique/review-api/internal/config"
	"github.com/cinecritique/review-api/internal/database"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	dir := filepath.Join("internal", "database", "migrations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("read migrations dir: %v", err)
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Fatalf("read %s: %v", name, err)
		}
		for _, stmt := range strings.Split(string(content), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.Exec(stmt); err != nil {
				log.Fatalf("apply %s: %v", name, err)
			}
		}
		log.Printf("applied %s", name)
	}
}
