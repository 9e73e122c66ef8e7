package routes

import (
	"github.com/arogyam-app/ArogyamBack/internal/config"
	"github.com/arogyam-app/ArogyamBack/internal/handlers"
	"github.com/arogyam-app/ArogyamBack/internal/middleware"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
	"github.com/arogyam-app/ArogyamBack/internal/repository"
	"github.com/arogyam-app/ArogyamBack/internal/services"
	chatws "github.com/arogyam-app/ArogyamBack/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	patientProfileRepo := repository.NewPatientProfileRepository(db)
	doctorProfileRepo := repository.NewDoctorProfileRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	postRepo := repository.NewPostRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	events := realtime.NewDispatcher()
	typing := realtime.NewTypingTracker()

	notificationService := services.NewNotificationService(notificationRepo, events)
	chatService := services.NewChatService(db, conversationRepo, messageRepo, userRepo, notificationService, events)
	statsService := services.NewStatsService(statsRepo)
	postService := services.NewPostService(postRepo, events)
	profileService := services.NewProfileService(patientProfileRepo, doctorProfileRepo)

	chatHub := chatws.NewHub()
	go chatHub.Run()

	sessionDeps := chatws.Deps{
		Chat:          chatService,
		Notifications: notificationService,
		Stats:         statsService,
		Events:        events,
		Typing:        typing,
	}

	authHandler := handlers.NewAuthHandler(db, userRepo, patientProfileRepo, doctorProfileRepo, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(profileService, storageService)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, sessionDeps, storageService, cfg.JWTSecret)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	statsHandler := handlers.NewStatsHandler(statsService)
	postHandler := handlers.NewPostHandler(postService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	patients := authProtected.Group("/patients")
	patients.Get("/profile", profileHandler.GetPatientProfile)
	patients.Put("/profile", profileHandler.UpdatePatientProfile)
	patients.Post("/profile/avatar", profileHandler.UploadPatientAvatar)

	doctors := authProtected.Group("/doctors")
	doctors.Get("", profileHandler.ListDoctors)
	doctors.Get("/profile", profileHandler.GetDoctorProfile)
	doctors.Put("/profile", profileHandler.UpdateDoctorProfile)
	doctors.Post("/profile/avatar", profileHandler.UploadDoctorAvatar)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/read", chatHandler.MarkConversationRead)
	conversations.Post("/:id/attachments", chatHandler.UploadAttachment)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.List)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)

	posts := authProtected.Group("/posts")
	posts.Get("", postHandler.ListRecent)
	posts.Post("", postHandler.Create)

	authProtected.Get("/stats/dashboard", statsHandler.Dashboard)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
