package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/sandeepkrmehta/lms-backend/config"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	"github.com/sandeepkrmehta/lms-backend/pkg/helpers"
)

// Seeds the admin account. There is no in-product role change, so this is
// the only way an ADMIN user comes to exist.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if name == "" {
		name = "Administrator"
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (full_name, email, password, role, subscription_status)
		VALUES ($1, lower($2), $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET password = EXCLUDED.password, role = EXCLUDED.role
		RETURNING id
	`, name, email, hash, entity.RoleAdmin, entity.SubscriptionInactive).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s\n", id, email)
}
