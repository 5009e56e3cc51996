package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"optoutserver/database"
	"optoutserver/filing"
	"optoutserver/internal/config"
	"optoutserver/server/middleware"
)

// Server HTTP сервер интейка опт-аутов.
// Держит ровно одну операторскую сессию в памяти: загрузка таблицы,
// карточка заявителя, вложения и результаты отправки живут до
// следующего импорта или перезапуска процесса.
type Server struct {
	config *config.Config

	session      *filing.Session
	parseClient  *ParseClient
	filingClient *FilingClient
	driver       *SubmissionDriver
	bundler      *ReceiptBundler
	journal      *database.JournalDB

	// Инициалы последнего запуска отправки, нужны для скачивания квитанций
	lastRunMu       sync.RWMutex
	lastRunInitials string

	httpServer *http.Server
}

// NewServer создает сервер со всеми зависимостями
func NewServer(cfg *config.Config, journal *database.JournalDB) *Server {
	filingClient := NewFilingClient(cfg.FilingAPIBaseURL, cfg.SubmitRatePerSecond)
	if cfg.SubmitTimeout > 0 {
		filingClient.httpClient.Timeout = cfg.SubmitTimeout
	}

	// Нетипизированный nil, иначе драйвер увидит непустой интерфейс
	var journalSink SubmissionJournal
	if journal != nil {
		journalSink = journal
	}

	return &Server{
		config:       cfg,
		session:      filing.NewSession(),
		parseClient:  NewParseClient(cfg.ParseAPIBaseURL, cfg.ClassifyNameSeparately),
		filingClient: filingClient,
		driver:       NewSubmissionDriver(filingClient, journalSink, cfg.FetchTokenPerItem, cfg.MaxRetries),
		bundler:      NewReceiptBundler(filingClient),
		journal:      journal,
	}
}

// BuildRouter собирает gin-роутер с middleware и маршрутами API
func (s *Server) BuildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinGzipMiddleware())

	api := router.Group("/api")
	{
		session := api.Group("/session")
		{
			session.POST("/ingest", s.handleIngest)
			session.GET("/applicant", s.handleGetApplicant)
			session.PUT("/applicant", s.handleEditApplicant)
			session.PUT("/person-type", s.handleSetPersonType)
			session.POST("/attachments", s.handleUploadAttachments)
			session.POST("/preview", s.handlePreview)
			session.POST("/submit", s.handleSubmit)
			session.GET("/results", s.handleResults)
		}

		api.GET("/receipt", s.handleReceipt)
		api.GET("/receipts.zip", s.handleReceiptsArchive)
		api.POST("/auth", s.handleAuth)
		api.GET("/mode", s.handleMode)
	}

	RegisterSwaggerRoutes(router)

	return router
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.BuildRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // Сборка архива квитанций может быть долгой
		IdleTimeout:  120 * time.Second,
	}

	Logger.Info("Starting HTTP server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server on %s: %w", addr, err)
	}

	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	Logger.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}
