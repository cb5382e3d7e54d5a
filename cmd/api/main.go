package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-stockledger-ws/internal/aggregator"
	"go-stockledger-ws/internal/feed"
	"go-stockledger-ws/internal/handler"
	"go-stockledger-ws/internal/model"
	"go-stockledger-ws/internal/repository"
	"go-stockledger-ws/internal/service"
	"go-stockledger-ws/internal/ws"
	"go-stockledger-ws/pkg/database"
	"go-stockledger-ws/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	_ = logger.Init("stockledger")
	zlog := logger.L()

	// 2. Setup database
	db := database.ConnectDB()
	if err := db.AutoMigrate(&model.Product{}, &model.Deduction{}, &model.Category{}); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	// 3. Repositories + unit of work
	productRepo := repository.NewProductRepo(db)
	deductionRepo := repository.NewDeductionRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	uow := repository.NewGormUnitOfWork(db)

	if err := categoryRepo.SeedDefaults(); err != nil {
		zlog.Warn("failed to seed categories", zap.Error(err))
	}

	// 4. Change feed + websocket hub
	changeFeed := feed.New(zlog)
	wsHub := ws.NewHub(zlog)
	go wsHub.Run()
	go wsHub.RelayEvents(changeFeed.Subscribe("ws-relay", 64))

	// 5. Live aggregators
	lowStock := aggregator.NewLowStockMonitor(productRepo, changeFeed, wsHub, zlog)
	topSelling := aggregator.NewTopSellingRanker(deductionRepo, changeFeed, wsHub, zlog)
	go lowStock.Run()
	go topSelling.Run()

	// 6. Services + handlers
	ledgerService := service.NewLedgerService(uow, deductionRepo, changeFeed, zlog)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, uow, changeFeed, zlog)

	catalogHandler := handler.NewCatalogHandler(catalogService)
	deductionHandler := handler.NewDeductionHandler(ledgerService)
	dashboardHandler := handler.NewDashboardHandler(lowStock, topSelling)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Stock Ledger v1.0",
	})

	app.Use(fiberlogger.New()) // Request logging
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	// 8. Routes (authentication lives upstream; the proxy forwards identity)
	api := app.Group("/api/v1")

	api.Get("/products", catalogHandler.GetProducts)
	api.Post("/products", catalogHandler.CreateProduct)
	api.Get("/products/low-stock", dashboardHandler.GetLowStock)
	api.Put("/products/:id", catalogHandler.UpdateProduct)
	api.Delete("/products/:id", catalogHandler.DeleteProduct)

	api.Get("/categories", catalogHandler.GetCategories)
	api.Post("/categories", catalogHandler.CreateCategory)

	api.Get("/deductions", deductionHandler.GetDeductions)
	api.Get("/deductions/:id", deductionHandler.GetDeduction)
	api.Post("/deductions", deductionHandler.CreateDeduction)
	api.Post("/deductions/:id/return", deductionHandler.ReturnDeduction)
	api.Delete("/deductions/:id", deductionHandler.DeleteDeduction)

	api.Get("/dashboard/low-stock", dashboardHandler.GetLowStock)
	api.Get("/dashboard/top-selling", dashboardHandler.GetTopSelling)

	// WebSocket route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	lowStock.Close()
	topSelling.Close()
	if err := app.Shutdown(); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}
