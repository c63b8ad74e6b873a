package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This will DELETE ALL ACTIVITY DATA!")
	fmt.Println()
	fmt.Println("This will:")
	fmt.Println("  - Delete all activity events")
	fmt.Println("  - Delete all attachments")
	fmt.Println("  - Delete all locations")
	fmt.Println("  - Delete all users")
	fmt.Println("  - Reset all ID sequences")
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)

	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	godotenv.Load()

	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	user := getenv("DB_USER", "postgres")
	password := os.Getenv("DB_PASSWORD")
	name := getenv("DB_NAME", "shift_db")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	statements := []string{
		"DELETE FROM attachments",
		"DELETE FROM activity_events",
		"DELETE FROM locations",
		"DELETE FROM users",
		"ALTER SEQUENCE attachments_id_seq RESTART WITH 1",
		"ALTER SEQUENCE activity_events_id_seq RESTART WITH 1",
		"ALTER SEQUENCE locations_id_seq RESTART WITH 1",
		"ALTER SEQUENCE users_id_seq RESTART WITH 1",
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("reset failed at %q: %v", stmt, err)
		}
		fmt.Printf("  done: %s\n", stmt)
	}

	fmt.Println()
	fmt.Println("Database reset complete.")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
