package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/api"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/config"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/inference"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/redis"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/service/chat"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/service/story"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/storage"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("MUSICBOT_CONFIG"))
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("MUSICBOT_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	logrus.Infof("using %s database", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		logrus.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		logrus.Fatalf("migrate database: %v", err)
	}

	// the story cache is optional, the service degrades to refetching
	rdb, err := redis.NewRedisClient(cfg)
	if err != nil {
		logrus.Warnf("redis unavailable, story caching disabled: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	client := inference.NewClient(cfg.Inference)

	pool := worker.NewPool(
		cfg.BasicConfig.MinWorkers,
		cfg.BasicConfig.MaxWorkers,
		time.Duration(cfg.BasicConfig.WorkerIdleTimeout)*time.Minute,
	)

	storyTTL := time.Duration(cfg.Redis.StoryTTL) * time.Minute
	if storyTTL <= 0 {
		storyTTL = 24 * time.Hour
	}

	chatService := chat.NewService(chat.NewStore(db), client, cfg.Inference.Persona)
	storyService := story.NewService(client, rdb, pool, cfg.Inference.Persona, storyTTL)
	handlers := api.NewHandler(chatService, storyService)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}
	if err := router.Run(addr); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
