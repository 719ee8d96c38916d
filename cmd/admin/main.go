package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"honestbox/backend/internal/api/handler"
	"honestbox/backend/internal/identity"
	"honestbox/backend/internal/moderation"
	"honestbox/backend/internal/storage"
)

func openEngine() *moderation.Service {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	return moderation.NewService(storageSvc)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: ban, unban, unban-case, list-bans, hash, token")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "ban":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin ban <user_hash> [reason]")
			os.Exit(1)
		}
		reason := "No reason"
		if len(os.Args) > 3 {
			reason = os.Args[3]
		}
		res, err := openEngine().Ban(os.Args[2], "admin-cli", reason)
		if err != nil {
			log.Fatalf("Error banning user: %v", err)
		}
		if res.ReBanned {
			fmt.Printf("Existing ban replaced. New case #%s\n", res.CaseID)
		} else {
			fmt.Printf("User banned. Case #%s\n", res.CaseID)
		}

	case "unban":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin unban <user_hash>")
			os.Exit(1)
		}
		removed, err := openEngine().Unban(os.Args[2])
		if err != nil {
			log.Fatalf("Error unbanning user: %v", err)
		}
		if removed {
			fmt.Println("Ban lifted.")
		} else {
			fmt.Println("No active ban for that hash.")
		}

	case "unban-case":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin unban-case <case_id>")
			os.Exit(1)
		}
		ban, err := openEngine().UnbanByCase(os.Args[2])
		if err != nil {
			log.Fatalf("Error unbanning case: %v", err)
		}
		if ban != nil {
			fmt.Printf("Ban for case #%s lifted (%s).\n", ban.CaseID, ban.UserHash)
		} else {
			fmt.Println("No active ban for that case id.")
		}

	case "list-bans":
		bans, err := openEngine().ListBans()
		if err != nil {
			log.Fatalf("Error listing bans: %v", err)
		}
		if len(bans) == 0 {
			fmt.Println("No active bans.")
			return
		}
		for i, ban := range bans {
			fmt.Printf("%d. %s\n   Case #%s | Banned: %s | By: %s | Reason: %s\n",
				i+1, ban.UserHash, ban.CaseID, ban.BannedAt.Format("2006-01-02"), ban.BannedBy, ban.Reason)
		}

	case "hash":
		// Resolves a raw platform user id to its pseudonymous handle, for
		// cross-checking ban reports against the store.
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin hash <raw_user_id>")
			os.Exit(1)
		}
		hasher, err := identity.NewHasher(os.Getenv("HASH_SALT"))
		if err != nil {
			log.Fatalf("HASH_SALT must be set: %v", err)
		}
		fmt.Println(hasher.Hash(os.Args[2]))

	case "token":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin token <moderator_id>")
			os.Exit(1)
		}
		secret := os.Getenv("MOD_API_SECRET")
		if secret == "" {
			log.Fatal("MOD_API_SECRET must be set")
		}
		token, err := handler.GenerateModeratorToken([]byte(secret), os.Args[2])
		if err != nil {
			log.Fatalf("Error minting token: %v", err)
		}
		fmt.Println(token)

	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
