package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/fortivest/quotations/backend/src/config"
	"github.com/fortivest/quotations/backend/src/database"
	"github.com/fortivest/quotations/backend/src/handlers"
	"github.com/fortivest/quotations/backend/src/logger"
	"github.com/fortivest/quotations/backend/src/processors"
	"github.com/fortivest/quotations/backend/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-User-ID")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Document-ID")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Fortivest quotation backend starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	resultCache := cache.New(config.Cfg.CacheExpiry, config.Cfg.CacheCleanupInterval)

	projectionProcessor := processors.NewProjectionProcessor()
	rateService := services.NewRateService(services.NewSQLiteRateStore(), resultCache)
	quotationService := services.NewQuotationService(rateService, projectionProcessor, resultCache)
	documentService := services.NewDocumentService(projectionProcessor)

	quotationHandler := handlers.NewQuotationHandler(quotationService, documentService)
	rateHandler := handlers.NewRateHandler(rateService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Fortivest quotation backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.UserContextMiddleware)

		r.Post("/quotations", quotationHandler.HandleCreateQuotation)
		r.Get("/quotations", quotationHandler.HandleListQuotations)
		r.Get("/quotations/{id}", quotationHandler.HandleGetQuotation)
		r.Get("/quotations/{id}/projection", quotationHandler.HandleGetProjection)
		r.Get("/quotations/{id}/document", quotationHandler.HandleDownloadDocument)
		r.Delete("/quotations/{id}", quotationHandler.HandleDeleteQuotation)

		r.Get("/rates", rateHandler.HandleListRateSets)
		r.Put("/rates", rateHandler.HandleSaveRateSet)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      http.MaxBytesHandler(r, config.Cfg.MaxRequestSizeBytes),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
