package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mindwave/internal/config"
	"mindwave/internal/database"
	"mindwave/internal/handlers"
	"mindwave/internal/jobs"
	"mindwave/internal/logging"
	"mindwave/internal/models"
	"mindwave/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Mindwave Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s, Env: %s)", cfg.Port, cfg.Environment)

	// Engines/modes/guard definition file (optional)
	enginesFile, err := config.LoadEngines(cfg.EnginesFile)
	if err != nil {
		log.Fatalf("❌ Failed to load engines file: %v", err)
	}

	// Local sqlite state: push subscriptions + guard history
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open local database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Optional Redis for context caching
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, context caching disabled: %v", err)
			redisService = nil
		}
	}

	// Metrics registry
	metrics := services.InitMetrics()

	// Engines
	engines := buildEngines(cfg, enginesFile)

	modeRegistry, err := services.NewModeRegistry(enginesFile.Modes)
	if err != nil {
		log.Fatalf("❌ Invalid mode overrides: %v", err)
	}

	mindService, err := services.NewMindService(services.NewRouter(), modeRegistry, engines, metrics)
	if err != nil {
		log.Fatalf("❌ Failed to initialize mind: %v", err)
	}

	// Memory collaborators (all optional; nil keeps the core working)
	memoryService := services.NewMemoryService(cfg.StoreURL, cfg.StoreKey)
	if memoryService != nil {
		verifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		memoryService.Verify(verifyCtx)
		cancel()
	}
	embeddingService := services.NewEmbeddingService(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	suggestionService := services.NewSuggestionService(memoryService)
	contextBuilder := services.NewContextBuilder(
		memoryService, embeddingService, suggestionService, redisService,
		cfg.RetrievalTimeout, cfg.SemanticMatchThreshold, cfg.SemanticMatchCount,
	)

	// Post-commit enrichment: insight extraction + embeddings
	var insightExtractor *services.InsightExtractor
	if memoryService != nil {
		insightExtractor = services.NewInsightExtractor(memoryService, embeddingService, mindService.FallbackEngine)
		insightExtractor.Start()
		defer insightExtractor.Stop()
		memoryService.AddPostStoreHook(insightExtractor.Enqueue)
	}

	pushService := services.NewPushService(db, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDClaimsEmail)
	guardService := services.NewGuardService(db, pushService, enginesFile.MonitoredServices)
	voiceService := services.NewVoiceService(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoice, cfg.ElevenLabsVoiceAR)
	digestService := services.NewDigestService(memoryService, mindService.FallbackEngine, pushService)

	// Background jobs
	jobScheduler := jobs.NewJobScheduler()
	if len(enginesFile.MonitoredServices) > 0 {
		jobScheduler.Register("guard-check", jobs.NewGuardCheckJob(guardService, 15*time.Minute))
	}
	if memoryService != nil {
		jobScheduler.Register("daily-digest", jobs.NewDailyDigestJob(digestService))
		jobScheduler.Register("stale-reminder", jobs.NewStaleReminderJob(suggestionService, pushService))
	}
	if err := jobScheduler.Start(); err != nil {
		log.Printf("⚠️  Failed to start job scheduler: %v", err)
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Mindwave v1.0",
		ReadTimeout:  90 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("mindwave")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	app.Use("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// Handlers
	healthHandler := handlers.NewHealthHandler(mindService, memoryService)
	thinkHandler := handlers.NewThinkHandler(mindService, contextBuilder, memoryService, voiceService)
	modeHandler := handlers.NewModeHandler(mindService)
	memoryHandler := handlers.NewMemoryHandler(memoryService, digestService)
	guardHandler := handlers.NewGuardHandler(guardService)
	pushHandler := handlers.NewPushHandler(pushService)
	voiceHandler := handlers.NewVoiceHandler(voiceService)

	// Routes
	api := app.Group("/api/v1")
	api.Get("/health", healthHandler.Handle)
	api.Post("/think", thinkHandler.Handle)
	api.Get("/route", thinkHandler.Route)
	api.Get("/stats", thinkHandler.Stats)
	api.Get("/mode", modeHandler.List)
	api.Post("/mode", modeHandler.SetDefault)

	memoryGroup := api.Group("/memory")
	memoryGroup.Get("/conversations", memoryHandler.Conversations)
	memoryGroup.Get("/insights", memoryHandler.Insights)
	memoryGroup.Post("/insights/:id/action", memoryHandler.ActionInsight)
	memoryGroup.Get("/ideas", memoryHandler.Ideas)
	memoryGroup.Post("/ideas", memoryHandler.StoreIdea)
	memoryGroup.Get("/stats", memoryHandler.Stats)
	memoryGroup.Post("/digest", memoryHandler.GenerateDigest)

	guardGroup := api.Group("/guard")
	guardGroup.Get("/check", guardHandler.Check)
	guardGroup.Get("/status", guardHandler.Status)
	guardGroup.Get("/history", guardHandler.History)

	pushGroup := api.Group("/push")
	pushGroup.Get("/vapid", pushHandler.VAPIDKey)
	pushGroup.Post("/subscribe", pushHandler.Subscribe)
	pushGroup.Post("/unsubscribe", pushHandler.Unsubscribe)
	pushGroup.Post("/send", pushHandler.Send)

	voiceGroup := api.Group("/voice")
	voiceGroup.Post("/generate", voiceHandler.Generate)
	voiceGroup.Get("/:id", voiceHandler.Audio)

	// Hot-reload the engines file
	go watchEnginesFile(cfg, mindService)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		jobScheduler.Stop()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// buildEngines constructs one adapter per configured API key, honoring
// the definition file's model overrides and enabled flags.
func buildEngines(cfg *config.Config, file *config.EnginesFile) []services.Engine {
	enabled := func(name models.EngineName) bool {
		if ov, ok := file.Engines[string(name)]; ok && ov.Enabled != nil {
			return *ov.Enabled
		}
		return true
	}
	model := func(name models.EngineName, fallback string) string {
		if ov, ok := file.Engines[string(name)]; ok && ov.Model != "" {
			return ov.Model
		}
		return fallback
	}

	var engines []services.Engine
	if cfg.AnthropicAPIKey != "" && enabled(models.EngineClaude) {
		engines = append(engines, services.NewClaudeEngine(
			cfg.AnthropicAPIKey, model(models.EngineClaude, cfg.ClaudeModel), cfg.GenerateTimeout))
	}
	if cfg.GeminiAPIKey != "" && enabled(models.EngineGemini) {
		engines = append(engines, services.NewGeminiEngine(
			cfg.GeminiAPIKey, model(models.EngineGemini, cfg.GeminiModel), cfg.GenerateTimeout))
	}
	if cfg.OpenAIAPIKey != "" && enabled(models.EngineOpenAI) {
		engines = append(engines, services.NewOpenAIEngine(
			cfg.OpenAIAPIKey, model(models.EngineOpenAI, cfg.OpenAIModel), cfg.GenerateTimeout))
	}
	return engines
}

// watchEnginesFile watches the engines definition file and swaps the
// live engine set when it changes.
func watchEnginesFile(cfg *config.Config, mind *services.MindService) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(cfg.EnginesFile)
	if err != nil {
		log.Printf("⚠️  Failed to resolve %s: %v", cfg.EnginesFile, err)
		return
	}

	// Watch the directory (more reliable than watching the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)
	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		return
	}
	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", cfg.EnginesFile)

	// Debounce rapid successive writes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					reloadEngines(cfg, mind)
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}

func reloadEngines(cfg *config.Config, mind *services.MindService) {
	log.Printf("🔄 Detected changes in %s, reloading engines...", cfg.EnginesFile)

	file, err := config.LoadEngines(cfg.EnginesFile)
	if err != nil {
		log.Printf("❌ Failed to reload engines file: %v", err)
		return
	}
	if err := mind.ReplaceEngines(buildEngines(cfg, file)); err != nil {
		log.Printf("❌ Engine reload rejected: %v", err)
	}
}
