package main

import (
	"fmt"
	"os"

	catalogrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/catalog"
	orderrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/db"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/http/handlers"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/platform/envutil"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/server"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/services"
)

func main() {
	log, err := logger.New(envutil.Str("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	gdb := postgresService.DB()

	// Repos
	productRepo := catalogrepo.NewProductRepo(gdb, log)
	componentRepo := catalogrepo.NewComponentRepo(gdb, log)
	orderRepo := orderrepo.NewOrderRepo(gdb, log)
	orderItemRepo := orderrepo.NewOrderItemRepo(gdb, log)

	// Services
	productService := services.NewProductService(gdb, productRepo, orderItemRepo, log)
	graphService := services.NewGraphService(gdb, productRepo, componentRepo, log)
	pricingService := services.NewPricingService(gdb, productRepo, componentRepo, log)
	versionService := services.NewVersionService(gdb, productRepo, orderItemRepo, log)
	availabilityService := services.NewAvailabilityService(gdb, productRepo, log)
	snapshotService := services.NewSnapshotService(gdb, productRepo, componentRepo, log)
	checkoutService := services.NewCheckoutService(gdb, availabilityService, snapshotService, orderRepo, orderItemRepo, log)

	// Handlers
	catalogHandler := handlers.NewCatalogHandler(log, productService, versionService)
	componentHandler := handlers.NewComponentHandler(log, graphService, pricingService)
	checkoutHandler := handlers.NewCheckoutHandler(log, availabilityService, snapshotService, checkoutService)

	router := server.NewRouter(server.RouterConfig{
		CatalogHandler:   catalogHandler,
		ComponentHandler: componentHandler,
		CheckoutHandler:  checkoutHandler,
	})

	addr := fmt.Sprintf(":%d", envutil.Int("HTTP_PORT", 8080))
	log.Info("Starting API server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
