// Package main provides account role utilities for Nestling.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"nestling/internal/config"
	"nestling/internal/database"
	"nestling/internal/models"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin/main.go promote <email>   - Switch a user to the admin type")
		fmt.Println("  go run ./cmd/admin/main.go demote <email>    - Switch a user back to the user type")
		fmt.Println("  go run ./cmd/admin/main.go list-admins       - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin/main.go %s <email>\n", command)
			os.Exit(1)
		}
		role := models.RoleAdmin
		if command == "demote" {
			role = models.RoleUser
		}
		setRole(db, os.Args[2], role)

	case "list-admins":
		listAdmins(db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setRole(db *gorm.DB, email string, role models.Role) {
	email = strings.ToLower(strings.TrimSpace(email))

	var target models.TypeUser
	if err := db.Where("name = ?", string(role)).First(&target).Error; err != nil {
		log.Fatalf("User type %q not found, run the seeder first: %v", role, err)
	}

	var user models.User
	if err := db.Preload("Type").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with email %s not found\n", email)
		} else {
			log.Fatalf("Database error: %v", err)
		}
		os.Exit(1)
	}

	if user.TypeID == target.ID {
		fmt.Printf("User %s (%s) already has the %s type\n", user.Email, user.UUID, role)
		return
	}

	if err := db.Model(&user).Update("type_id", target.ID).Error; err != nil {
		log.Fatalf("Failed to update user type: %v", err)
	}

	fmt.Printf("Switched %s (%s) from %s to %s\n", user.Email, user.UUID, user.Type.Name, role)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	err := db.Joins("Type").
		Where(`"Type"."name" = ?`, string(models.RoleAdmin)).
		Order("users.id").
		Find(&admins).Error
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("Current admins:")
	for _, admin := range admins {
		fmt.Printf("UUID: %s | Email: %s | Name: %s %s\n", admin.UUID, admin.Email, admin.Name, admin.Surname)
	}
}
