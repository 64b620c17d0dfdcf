package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/passbi/journeyplanner/internal/auditlog"
	"github.com/passbi/journeyplanner/internal/httpapi"
	"github.com/passbi/journeyplanner/internal/planner"
	"github.com/passbi/journeyplanner/internal/resultcache"
)

func main() {
	log.Println("Starting journey planner server...")

	dataDir := getEnv("GTFS_DATA_DIR", "data")
	p, err := planner.Load(dataDir)
	if err != nil {
		log.Fatalf("Failed to load GTFS feed from %s: %v", dataDir, err)
	}
	log.Println("✓ GTFS feed loaded")

	app := fiber.New(fiber.Config{
		AppName:      "Journey Planner API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	httpapi.NewServer(p).Register(app)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{"error": "endpoint not found"})
	})

	port := getEnv("SERVER_PORT", "8080")
	addr := fmt.Sprintf(":%s", port)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
		resultcache.Close()
		auditlog.Close()
	}()

	log.Printf("🚀 Server listening on http://localhost%s", addr)
	log.Printf("📍 Plan a journey: http://localhost%s/plan?from=...&to=...&date=...&time=...", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
