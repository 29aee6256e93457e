// main.go
package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"voicematch/app/controllers"
	"voicematch/app/routes"
	"voicematch/app/services"
	"voicematch/config"
	"voicematch/database"
	"voicematch/redis"
)

func main() {
	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		ServerHeader:  "Fiber",
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			ctx.Status(code)
			return ctx.JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Initialize databases first
	fmt.Println("🔌 Initializing database connections...")
	if err := database.InitDB(); err != nil {
		log.Fatalf("❌ Failed to connect to the databases: %v", err)
	}
	fmt.Println("✅ Databases initialized successfully")

	// Shared Redis service for presence and stats
	redisService := redis.NewService()

	// Core services: registry, history sink, session manager, queue, relay
	connectionService := services.NewConnectionService(redisService)
	historyService := services.NewHistoryService(database.CassandraSession, redisService)
	sessionService := services.NewSessionService(connectionService, historyService, services.SessionTimeouts{
		Handshake:       config.HandshakeTimeout,
		Signaling:       config.SignalingTimeout,
		MaxCallDuration: config.MaxCallDuration,
		RatingWindow:    config.RatingWindow,
		IceGraceWindow:  config.IceGraceWindow,
		EndedRetention:  config.EndedRetention,
	})
	queueService := services.NewQueueService(sessionService)
	relayService := services.NewRelayService(sessionService)
	profileService := services.NewProfileService(database.UsersCollection)

	// A dropped connection cancels the queue entry and ends any live call
	connectionService.OnDisconnect(queueService.RemoveFor)
	connectionService.OnDisconnect(sessionService.HandleDisconnect)

	// Monitor drives pairing runs and every deadline
	monitorService := services.NewMonitorService(queueService, sessionService, connectionService,
		config.QueueWaitLimit, config.ConnectionIdleLimit)
	monitorService.Start(config.MonitorTickInterval)

	// Initialize Socket.IO handler
	fmt.Println("🔌 Initializing Socket.IO handler...")
	socketHandler := config.NewSocketHandler(connectionService, queueService, sessionService,
		relayService, profileService, monitorService)
	fmt.Println("✅ Socket.IO handler initialized")

	// Setup Socket.IO routes (this should be before regular routes)
	socketHandler.SetupSocketRoutes(app)

	// Initialize regular routes
	statsController := controllers.NewStatsController(queueService, sessionService, connectionService, historyService)
	routes.SetupRoutes(app, statsController, redisService)

	port := config.ServerPort
	fmt.Printf("🚀 Server starting on port :%d\n", port)
	fmt.Printf("🔌 Socket.IO server available at :%d/socket.io\n", port)

	log.Fatal(app.Listen(fmt.Sprintf(":%d", port)))
}
