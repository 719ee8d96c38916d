package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"honestbox/backend/internal/api/handler"
	"honestbox/backend/internal/feed"
	"honestbox/backend/internal/identity"
	"honestbox/backend/internal/models"
	"honestbox/backend/internal/moderation"
	"honestbox/backend/internal/storage"
	"honestbox/backend/internal/telegram"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=user password=password dbname=honestbox port=5432 sslmode=disable"
	}

	// TranslateError turns driver duplicate-key errors into
	// gorm.ErrDuplicatedKey, which the ban store relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Ban{},
		&models.Submission{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s is not set!", key)
	}
	return v
}

func mustChatID(key string) int64 {
	id, err := strconv.ParseInt(mustEnv(key), 10, 64)
	if err != nil {
		log.Fatalf("%s must be a numeric chat id: %v", key, err)
	}
	return id
}

// parseAdminIDs splits a comma-separated ADMIN_USER_IDS value. An empty
// value means nobody can ban from the bot, which is a valid setup.
func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Fatalf("ADMIN_USER_IDS contains a non-numeric id %q", part)
		}
		ids = append(ids, id)
	}
	return ids
}

func main() {
	log.Println("Starting HonestBox Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	db, rdb := setupDependencies()
	s := storage.NewStorageService(db, rdb)

	hasher, err := identity.NewHasher(mustEnv("HASH_SALT"))
	if err != nil {
		log.Fatalf("Failed to build identity hasher: %v", err)
	}

	engine := moderation.NewService(s)

	hub := feed.NewHub(s)

	botService, err := telegram.NewBotService(
		mustEnv("TELEGRAM_BOT_TOKEN"),
		engine,
		s,
		hasher,
		mustChatID("REVIEW_CHAT_ID"),
		mustChatID("PUBLIC_CHAT_ID"),
		parseAdminIDs(os.Getenv("ADMIN_USER_IDS")),
	)
	if err != nil {
		log.Fatalf("Failed to start Telegram bot: %v", err)
	}

	go hub.Run()
	go botService.Run()

	r := gin.Default()
	h := handler.NewHandler(engine, hub, []byte(mustEnv("MOD_API_SECRET")))
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           ":8080",
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
