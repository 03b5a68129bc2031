package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/gomezmarket/gomezbot-backend/database"
	"github.com/gomezmarket/gomezbot-backend/internal/jobs"
	"github.com/gomezmarket/gomezbot-backend/internal/models"
	"github.com/gomezmarket/gomezbot-backend/internal/routes"
	"github.com/gomezmarket/gomezbot-backend/internal/services"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
	"github.com/gomezmarket/gomezbot-backend/internal/valery"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	chatbotID := os.Getenv("CHATBOT_ID")
	if chatbotID == "" {
		chatbotID = "gomezbot"
	}

	// Bot state storage
	var store storage.Store
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Session{},
			&models.ChatMessage{},
			&models.SearchHistory{},
			&models.CartItem{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")
		store = storage.NewDatabaseStore(database.DB)
	}

	// External ERP connection: catalog, customers, banks, orders.
	log.Println("📦 Connecting to Valery ERP database...")
	database.ConnectValery()
	erp := valery.NewClient(database.ValeryDB)

	// Services
	sessionService := services.NewSessionService(store)
	intentClassifier := services.NewIntentClassifier()
	searchService := services.NewSearchService(erp, store)
	cartService := services.NewCartService(store)
	checkoutService := services.NewCheckoutService(cartService, erp, erp, erp)
	chatbotService := services.NewChatbotService(
		sessionService,
		intentClassifier,
		searchService,
		cartService,
		checkoutService,
		erp,
		store,
		chatbotID,
	)

	// Background jobs
	sweepJob := jobs.NewSessionSweepJob(sessionService)
	sweepJob.Start()

	log.Println("✅ All services initialized")

	app := fiber.New(fiber.Config{
		AppName: "GomezBot Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, store, chatbotService, sessionService, database.DB, database.ValeryDB)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("🛑 Shutting down...")
		sweepJob.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 GomezBot Backend listening on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
