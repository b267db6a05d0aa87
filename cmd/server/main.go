package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nursescript/internal/ai"
	"nursescript/internal/audio"
	"nursescript/internal/auth"
	"nursescript/internal/config"
	"nursescript/internal/database"
	"nursescript/internal/handlers"
	"nursescript/internal/live"
	"nursescript/internal/ratelimit"
	"nursescript/internal/repository"
	"nursescript/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	roomRepo := repository.NewRoomRepository(db)
	sessionRepo := repository.NewLiveSessionRepository(db)
	resultRepo := repository.NewTypingResultRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	userRepo := repository.NewUserRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)

	// Live event feed for websocket watchers
	hub := live.NewHub()

	// Initialize services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.FromEmail, cfg.FromName, cfg.AppBaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	if emailService.IsEnabled() {
		log.Printf("Email sending enabled (from: %s)", cfg.FromEmail)
	} else {
		log.Println("Email sending disabled (SES_FROM_EMAIL not set)")
	}

	sessionService := service.NewLiveSessionService(sessionRepo, roomRepo, hub, cfg.CountdownGracePeriod, cfg.MaxActivityDuration)
	roomService := service.NewRoomService(roomRepo, sessionService)
	resultService := service.NewTypingResultService(resultRepo, userRepo, roomRepo)
	teacherService := service.NewTeacherService(teacherRepo, userRepo, emailService)
	consultationService := service.NewConsultationService(consultationRepo)

	// AI patient chat and speech synthesis
	aiClient := ai.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.AppBaseURL)
	if aiClient.IsConfigured() {
		log.Printf("AI patient chat enabled (model: %s)", aiClient.Model())
	} else {
		log.Println("AI patient chat disabled (OPENROUTER_API_KEY not set)")
	}

	audioDir := filepath.Join(cfg.StaticFilesPath, "audio")
	ttsService := audio.NewTTSService(audioDir, cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID)
	chatLimiter := ratelimit.New(cfg.ChatRateInterval)

	// Bearer token verification against the identity provider
	verifier := auth.NewVerifier(cfg.AuthJWKSURL, cfg.AuthIssuer, cfg.AuthAudience)

	// Initialize handlers
	middleware := handlers.NewMiddleware(verifier, teacherService, userRepo)
	roomHandler := handlers.NewRoomHandler(roomService, sessionService)
	sessionHandler := handlers.NewLiveSessionHandler(sessionService)
	studentHandler := handlers.NewStudentHandler(roomService, sessionService)
	resultHandler := handlers.NewTypingResultHandler(resultService, emailService)
	adminHandler := handlers.NewAdminHandler(teacherService)
	teacherHandler := handlers.NewTeacherHandler(teacherService)
	aiHandler := handlers.NewAIHandler(aiClient, ttsService, consultationService, chatLimiter)
	consultationHandler := handlers.NewConsultationHandler(consultationService)
	wsHandler := handlers.NewWSHandler(hub, cfg.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(db)

	// Setup routes
	mux := http.NewServeMux()

	// Generated patient audio
	mux.Handle("GET /audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(audioDir))))

	// Health
	mux.HandleFunc("GET /api/health", healthHandler.Health)

	// Rooms
	mux.HandleFunc("POST /api/rooms", middleware.RequireTeacher(roomHandler.Create))
	mux.HandleFunc("GET /api/rooms", middleware.RequireTeacher(roomHandler.List))
	mux.HandleFunc("GET /api/rooms/{roomCode}", roomHandler.Get)
	mux.HandleFunc("PATCH /api/rooms/{roomCode}/status", middleware.RequireTeacher(roomHandler.UpdateStatus))
	mux.HandleFunc("DELETE /api/rooms/{roomCode}", middleware.RequireTeacher(roomHandler.Delete))
	mux.HandleFunc("POST /api/rooms/{roomCode}/start-activity", middleware.RequireTeacher(roomHandler.StartActivity))
	mux.HandleFunc("POST /api/rooms/{roomCode}/end-activity", middleware.RequireTeacher(roomHandler.EndActivity))

	// Live sessions
	mux.HandleFunc("GET /api/live-sessions/{roomCode}", sessionHandler.Get)
	mux.HandleFunc("POST /api/live-sessions/{roomCode}/progress", sessionHandler.UpdateProgress)
	mux.HandleFunc("GET /api/live-sessions/{roomCode}/leaderboard", sessionHandler.Leaderboard)
	mux.HandleFunc("GET /api/live-sessions/{roomCode}/watch", wsHandler.Watch)

	// Students
	mux.HandleFunc("POST /api/students/join", studentHandler.Join)
	mux.HandleFunc("POST /api/students/progress", studentHandler.UpdateProgress)
	mux.HandleFunc("POST /api/students/leave", studentHandler.Leave)
	mux.HandleFunc("GET /api/students/{studentId}/rooms", studentHandler.Rooms)

	// Typing results
	mux.HandleFunc("POST /api/typing-results", resultHandler.Save)
	mux.HandleFunc("GET /api/typing-results/user/{userId}", resultHandler.UserResults)
	mux.HandleFunc("GET /api/typing-results/user/{userId}/stats", resultHandler.Stats)
	mux.HandleFunc("GET /api/typing-results/by-email", middleware.RequireTeacher(resultHandler.ByEmail))
	mux.HandleFunc("POST /api/typing-results/email", resultHandler.EmailResult)
	mux.HandleFunc("GET /api/typing-results/top-wpm-monthly", resultHandler.TopWPMMonthly)
	mux.HandleFunc("GET /api/typing-results/recent-activities", resultHandler.RecentActivities)

	// Teacher administration
	mux.HandleFunc("POST /api/admin/teachers", middleware.RequireAdmin(adminHandler.CreateTeacher))
	mux.HandleFunc("GET /api/admin/teachers", middleware.RequireAdmin(adminHandler.ListTeachers))
	mux.HandleFunc("GET /api/admin/teachers/{id}", middleware.RequireAdmin(adminHandler.GetTeacher))
	mux.HandleFunc("PATCH /api/admin/teachers/{id}", middleware.RequireAdmin(adminHandler.UpdateTeacher))
	mux.HandleFunc("DELETE /api/admin/teachers/{id}", middleware.RequireAdmin(adminHandler.DeleteTeacher))

	// Teacher self-service
	mux.HandleFunc("GET /api/teachers/profile", middleware.RequireTeacher(teacherHandler.Profile))
	mux.HandleFunc("PATCH /api/teachers/profile", middleware.RequireTeacher(teacherHandler.UpdateProfile))
	mux.HandleFunc("GET /api/teachers/students", middleware.RequireTeacher(teacherHandler.Students))
	mux.HandleFunc("POST /api/teachers/students", middleware.RequireTeacher(teacherHandler.AddStudents))
	mux.HandleFunc("GET /api/teachers/students/search", middleware.RequireTeacher(teacherHandler.SearchStudents))
	mux.HandleFunc("DELETE /api/teachers/students/{studentId}", middleware.RequireTeacher(teacherHandler.RemoveStudent))

	// AI patient
	mux.HandleFunc("POST /api/ai/generate-response", aiHandler.GenerateResponse)
	mux.HandleFunc("POST /api/ai/chat-with-speech", aiHandler.ChatWithSpeech)
	mux.HandleFunc("GET /api/ai/generate-patient", aiHandler.GeneratePatient)
	mux.HandleFunc("POST /api/ai/submit-assessment", aiHandler.SubmitAssessment)
	mux.HandleFunc("GET /api/ai/status", aiHandler.Status)
	mux.HandleFunc("GET /api/ai/health", aiHandler.Health)

	// Consultations
	mux.HandleFunc("POST /api/consultations", consultationHandler.Save)
	mux.HandleFunc("GET /api/consultations/student/{userId}", consultationHandler.History)
	mux.HandleFunc("GET /api/consultations/{id}", consultationHandler.Get)
	mux.HandleFunc("POST /api/consultations/{id}/feedback", middleware.RequireTeacher(consultationHandler.Feedback))

	// Wrap with CORS and logging middleware
	handler := handlers.Logging(handlers.CORS(cfg.AllowedOrigins)(mux))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
