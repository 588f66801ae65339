package main

import (
	"os"

	"poscore/internal/config"
	"poscore/internal/database"
	"poscore/internal/handler"
	"poscore/internal/middleware"
	"poscore/internal/repository"
	"poscore/internal/service"
	"poscore/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Inventory Ledger API
// @version         1.0
// @description     Multi-location inventory with an append-only stock ledger, purchasing, supplier returns, transfers, and point of sale.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.GetLogger()

	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Info("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	logger.Info("connected to PostgreSQL")

	// WebSocket hub for live stock events
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	productRepo := repository.NewProductRepository(db)
	serialRepo := repository.NewSerialRepository(db)
	stockRepo := repository.NewStockRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	returnRepo := repository.NewSupplierReturnRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	financeRepo := repository.NewFinanceRepository(db)
	idemRepo := repository.NewIdempotencyRepository(db)

	// Services
	ledger := service.NewStockLedger(stockRepo, wsHub)
	userService := service.NewUserService(userRepo)
	auditService := service.NewAuditService(auditRepo)
	productService := service.NewProductService(productRepo, serialRepo, auditRepo, txManager)
	supplierService := service.NewSupplierService(supplierRepo, financeRepo)
	locationService := service.NewLocationService(locationRepo)
	purchaseService := service.NewPurchaseService(purchaseRepo, supplierRepo, locationRepo, productRepo, serialRepo, financeRepo, auditRepo, ledger, txManager)
	returnService := service.NewSupplierReturnService(returnRepo, supplierRepo, locationRepo, productRepo, serialRepo, financeRepo, auditRepo, ledger, txManager)
	transferService := service.NewTransferService(transferRepo, locationRepo, productRepo, serialRepo, auditRepo, ledger, txManager)
	saleService := service.NewSaleService(saleRepo, locationRepo, productRepo, serialRepo, financeRepo, idemRepo, auditRepo, ledger, txManager)
	stockService := service.NewStockService(stockRepo, productRepo, locationRepo, idemRepo, auditRepo, ledger, txManager)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	auditHandler := handler.NewAuditHandler(auditService)
	productHandler := handler.NewProductHandler(productService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	locationHandler := handler.NewLocationHandler(locationService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	returnHandler := handler.NewSupplierReturnHandler(returnService)
	transferHandler := handler.NewTransferHandler(transferService)
	saleHandler := handler.NewSaleHandler(saleService)
	stockHandler := handler.NewStockHandler(stockService)

	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API routes
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)
	productHandler.RegisterRoutes(root)
	supplierHandler.RegisterRoutes(root)
	locationHandler.RegisterRoutes(root)
	purchaseHandler.RegisterRoutes(root)
	returnHandler.RegisterRoutes(root)
	transferHandler.RegisterRoutes(root)
	saleHandler.RegisterRoutes(root)
	stockHandler.RegisterRoutes(root)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.WithField("port", port).Info("starting server")
	if err := router.Run(":" + port); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
