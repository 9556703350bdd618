package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sahilchouksey/learnhub/config"
	"github.com/sahilchouksey/learnhub/database"
)

// Usage: seed [user|lesson|achievement|all]
func main() {
	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file could not be loaded, using system environment variables")
	}

	env, err := config.Get()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	target := "all"
	if len(os.Args) > 1 {
		target = strings.ToLower(os.Args[1])
	}

	store, err := database.StartGORM(env)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Printf("LearnHub - Database Seeding (%s)\n", target)
	fmt.Println(separator)

	if err := database.RunSeeds(store.DB(), target); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Println(separator)
	fmt.Println("Seeding completed successfully!")
	fmt.Println(separator)
	if target == "user" || target == "all" {
		fmt.Println("Admin user created from ADMIN_EMAIL and ADMIN_PASSWORD environment variables.")
		fmt.Println("If not set, admin user creation is skipped.")
	}
}
