package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"realest/internal/utils"
)

// Backfills reference codes for properties created before codes existed.
// Run manually: go run scripts/backfill_refcodes.go
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=postgres dbname=realest sslmode=disable"
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT id FROM properties WHERE reference_code IS NULL OR reference_code = ''`)
	if err != nil {
		log.Fatalf("Failed to query properties: %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			log.Fatalf("Failed to scan row: %v", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Row iteration failed: %v", err)
	}

	updated := 0
	for _, id := range ids {
		code, err := utils.GenerateReferenceCode()
		if err != nil {
			log.Fatalf("Failed to generate code: %v", err)
		}

		if _, err := db.Exec(`UPDATE properties SET reference_code = $1 WHERE id = $2`, code, id); err != nil {
			log.Printf("Warning: failed to update property %s: %v", id, err)
			continue
		}
		updated++
	}

	fmt.Printf("Backfilled reference codes for %d properties\n", updated)
}
