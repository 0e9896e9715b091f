package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"bb01/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Admin utility: creates a user with a fresh auth identity, bypassing the
// HTTP registration endpoint. Useful for seeding a first account.
func main() {
	if len(os.Args) < 4 {
		fmt.Println("usage: go run ./cmd/create_user <email> <username> <password>")
		os.Exit(2)
	}
	email := strings.ToLower(strings.TrimSpace(os.Args[1]))
	username := os.Args[2]
	password := os.Args[3]

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// check existing
	var existing models.User
	if err := db.Where("email = ? OR username = ?", email, username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		identity := models.AuthIdentity{Value: uuid.NewString()}
		if err := tx.Create(&identity).Error; err != nil {
			return err
		}
		user := models.User{
			Email:          email,
			Username:       username,
			FirstName:      username,
			LastName:       username,
			HashedPassword: hpw,
			AuthIdentityID: identity.ID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		fmt.Printf("created user %s id=%d identity=%s\n", username, user.ID, identity.Value)
		return nil
	})
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
}
