package main

import (
	"fulfillment-wms/config"
	"fulfillment-wms/controllers"
	"fulfillment-wms/controllers/idgen"
	"fulfillment-wms/database"
	"fulfillment-wms/middleware"
	"fulfillment-wms/migration"
	"fulfillment-wms/routes"
	"fulfillment-wms/services"
	"fulfillment-wms/utils"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()

	logger, err := utils.NewLogger(config.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := database.EnsureDatabaseExists(config.DBName); err != nil {
		logger.Fatal("ensure database", zap.String("db", config.DBName), zap.Error(err))
	}
	db, err := database.Open(config.DBName)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	if err := migration.Migrate(db); err != nil {
		logger.Fatal("auto migrate", zap.Error(err))
	}

	idgen.Init()
	if config.SeedDemo {
		if _, err := database.SeedCatalog(db, database.DemoCatalog()); err != nil {
			logger.Fatal("seed demo catalog", zap.Error(err))
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)
	notifier := services.NewNotifier(services.MailConfig{
		Host:     config.SMTPHost,
		Port:     config.SMTPPort,
		User:     config.SMTPUser,
		Password: config.SMTPPassword,
		To:       config.NotifyEmails,
	}, logger)
	clock := services.SystemClock{}
	catalog := services.CatalogFactory(services.DefaultCatalog)

	orders := services.NewOrderService(db, catalog, clock, metrics, logger)
	lines := services.NewLineLedger(db, catalog, logger)
	movements := services.NewMovementService(db, catalog, clock, metrics, notifier, logger)
	satellites := services.NewSatelliteService(db, catalog, clock, metrics, notifier, logger, config.QuarantineTracked)

	app := fiber.New()
	config.SetupCORS(app)
	routes.Setup(app, routes.Handlers{
		Auth:       middleware.Auth(config.JWTSecret),
		Orders:     controllers.NewOrderController(orders, lines, logger),
		Movements:  controllers.NewMovementController(movements, logger),
		Receivings: controllers.NewReceivingController(satellites, logger),
		Shipping:   controllers.NewShippingController(satellites, logger),
		Inventory:  controllers.NewInventoryController(movements, logger),
		Metrics:    adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	})

	logger.Info("server starting", zap.String("port", config.APP_PORT), zap.String("db_driver", config.DBDriver))
	if err := app.Listen(":" + config.APP_PORT); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
