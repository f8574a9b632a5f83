package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	approvalrouter "github.com/OpenKinder/kinder/internal/approval/router"
	approvalservice "github.com/OpenKinder/kinder/internal/approval/service"
	"github.com/OpenKinder/kinder/internal/auth"
	canteenrouter "github.com/OpenKinder/kinder/internal/canteen/router"
	canteenservice "github.com/OpenKinder/kinder/internal/canteen/service"
	"github.com/OpenKinder/kinder/internal/config"
	"github.com/OpenKinder/kinder/internal/database"
	dirservice "github.com/OpenKinder/kinder/internal/directory/service"
	"github.com/OpenKinder/kinder/internal/exports"
	"github.com/OpenKinder/kinder/internal/form"
	formrouter "github.com/OpenKinder/kinder/internal/form/router"
	formservice "github.com/OpenKinder/kinder/internal/form/service"
	"github.com/OpenKinder/kinder/internal/middleware"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	slog.Info("configuration loaded successfully",
		"db_host", cfg.Database.Host,
		"db_port", cfg.Database.Port,
		"db_name", cfg.Database.Name,
		"db_sslmode", cfg.Database.SSLMode,
	)

	slog.Info("server configuration",
		"port", cfg.Server.Port,
		"storage_type", cfg.Storage.Type,
	)

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Perform health check and schema migration
	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("database health check failed: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	// Field registry: entity schemas submissions are validated against
	registry := form.NewRegistry()
	registerEntities(registry)

	// Directory and auth
	directoryService := dirservice.NewDirectoryService(db)
	tokenManager := auth.NewTokenManager(&cfg.Auth)
	authService := auth.NewAuthService(directoryService)

	// Approval flow services
	flowService := approvalservice.NewFlowService(db)
	recordService := approvalservice.NewRecordService(db)
	resolver := approvalservice.NewDirectoryResolver(directoryService)
	evaluator := approvalservice.NewEvaluator(recordService, resolver)
	submissionService := approvalservice.NewSubmissionService(db, flowService, evaluator, resolver, registry)

	// Canteen services
	catalogService := canteenservice.NewCatalogService(db)
	rosterService := canteenservice.NewRosterService(db)
	planService := canteenservice.NewPurchasePlanService(db, catalogService, rosterService)

	// Export storage
	storage, err := exports.NewStorageFromConfig(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize export storage: %v", err)
	}
	exportService := exports.NewExportService(storage)

	// Routers
	formRouter := formrouter.NewFormRouter(formservice.NewFormService(db, registry))
	flowRouter := approvalrouter.NewFlowRouter(flowService)
	submissionRouter := approvalrouter.NewSubmissionRouter(submissionService, recordService)
	planRouter := canteenrouter.NewPurchasePlanRouter(planService)
	exportHandler := exports.NewHTTPHandler(exportService, planService)

	// Set up HTTP routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/form-templates", formRouter.HandleListFormTemplates)
	mux.HandleFunc("GET /api/v1/form-templates/{id}", formRouter.HandleGetFormTemplateByID)
	mux.Handle("POST /api/v1/form-templates", auth.RequireAuth(http.HandlerFunc(formRouter.HandleCreateFormTemplate)))

	mux.Handle("POST /api/v1/flows", auth.RequireAuth(http.HandlerFunc(flowRouter.HandleCreateFlow)))
	mux.HandleFunc("GET /api/v1/flows", flowRouter.HandleListFlows)
	mux.HandleFunc("GET /api/v1/flows/{id}", flowRouter.HandleGetFlowByID)
	mux.Handle("PATCH /api/v1/flows/{id}", auth.RequireAuth(http.HandlerFunc(flowRouter.HandleUpdateFlow)))
	mux.Handle("DELETE /api/v1/flows/{id}", auth.RequireAuth(http.HandlerFunc(flowRouter.HandleDeleteFlow)))
	mux.Handle("POST /api/v1/flows/{id}/nodes", auth.RequireAuth(http.HandlerFunc(flowRouter.HandleInsertNode)))
	mux.Handle("POST /api/v1/flows/{id}/nodes/move", auth.RequireAuth(http.HandlerFunc(flowRouter.HandleMoveNode)))
	mux.Handle("DELETE /api/v1/flows/{id}/nodes/{seq}", auth.RequireAuth(http.HandlerFunc(flowRouter.HandleDeleteNode)))

	mux.Handle("POST /api/v1/submissions", auth.RequireAuth(http.HandlerFunc(submissionRouter.HandleCreateSubmission)))
	mux.Handle("GET /api/v1/submissions", auth.RequireAuth(http.HandlerFunc(submissionRouter.HandleListSubmissions)))
	mux.Handle("GET /api/v1/submissions/{id}", auth.RequireAuth(http.HandlerFunc(submissionRouter.HandleGetSubmissionByID)))
	mux.Handle("GET /api/v1/submissions/{id}/records", auth.RequireAuth(http.HandlerFunc(submissionRouter.HandleGetSubmissionRecords)))
	mux.Handle("POST /api/v1/submissions/{id}/actions", auth.RequireAuth(http.HandlerFunc(submissionRouter.HandleApplyAction)))
	mux.Handle("GET /api/v1/approvals/pending", auth.RequireAuth(http.HandlerFunc(submissionRouter.HandleListPendingApprovals)))

	mux.Handle("POST /api/v1/purchase-plans/preview", auth.RequireAuth(http.HandlerFunc(planRouter.HandlePreviewPlan)))
	mux.Handle("POST /api/v1/purchase-plans", auth.RequireAuth(http.HandlerFunc(planRouter.HandleCreatePlan)))
	mux.Handle("GET /api/v1/purchase-plans", auth.RequireAuth(http.HandlerFunc(planRouter.HandleListPlans)))
	mux.Handle("GET /api/v1/purchase-plans/{id}", auth.RequireAuth(http.HandlerFunc(planRouter.HandleGetPlanByID)))
	mux.Handle("PATCH /api/v1/purchase-plans/{id}/status", auth.RequireAuth(http.HandlerFunc(planRouter.HandleUpdatePlanStatus)))
	mux.Handle("DELETE /api/v1/purchase-plans/{id}", auth.RequireAuth(http.HandlerFunc(planRouter.HandleDeletePlan)))
	mux.Handle("POST /api/v1/purchase-plans/{id}/export", auth.RequireAuth(http.HandlerFunc(exportHandler.HandleExportPlan)))
	mux.Handle("GET /api/v1/exports/{key}", auth.RequireAuth(http.HandlerFunc(exportHandler.HandleDownload)))

	// Wrap with auth context injection and CORS
	handler := middleware.CORS(&cfg.CORS)(auth.Middleware(authService, tokenManager)(mux))

	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: handler,
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal
	<-quit
	slog.Info("shutting down server...")

	// Create a context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	} else {
		slog.Info("server gracefully stopped")
	}

	slog.Info("server stopped")
}

// registerEntities installs the built-in entity schemas. New approval-routed
// entity types are added here.
func registerEntities(registry *form.Registry) {
	registry.Register("PURCHASE_REQUEST", []form.FieldDef{
		{Name: "title", Type: form.FieldTypeText, Required: true},
		{Name: "amount", Type: form.FieldTypeNumber, Required: true},
		{Name: "neededBy", Type: form.FieldTypeDate, Required: false},
		{Name: "urgency", Type: form.FieldTypeSelect, Required: true, Options: []string{"LOW", "NORMAL", "HIGH"}},
	})
	registry.Register("LEAVE_REQUEST", []form.FieldDef{
		{Name: "reason", Type: form.FieldTypeText, Required: true},
		{Name: "startDate", Type: form.FieldTypeDate, Required: true},
		{Name: "endDate", Type: form.FieldTypeDate, Required: true},
		{Name: "halfDay", Type: form.FieldTypeBool, Required: false},
	})
	registry.Register("REIMBURSEMENT", []form.FieldDef{
		{Name: "summary", Type: form.FieldTypeText, Required: true},
		{Name: "total", Type: form.FieldTypeNumber, Required: true},
	})
}
