package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/Deekshith9238/testingfhm/modules/api"
	"github.com/Deekshith9238/testingfhm/modules/notify"
	"github.com/Deekshith9238/testingfhm/modules/push"
	"github.com/Deekshith9238/testingfhm/modules/session"
	"github.com/Deekshith9238/testingfhm/modules/store"
	"github.com/Deekshith9238/testingfhm/modules/task"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== FindHelp Marketplace - task lifecycle + notification fan-out ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	storeModule := store.NewModule()
	sessionModule := session.NewModule()
	pushModule := push.NewModule()
	taskModule := task.NewModule(storeModule)
	notifyModule := notify.NewModule(storeModule)
	apiModule := api.NewModule(storeModule, taskModule, sessionModule, pushModule)

	// Inject the push hub into the fan-out module
	// (done manually because the hub is not exposed via ServiceContainer)
	notifyModule.SetPusher(pushModule.Hub())

	// Register modules with the framework.
	// Order: leaves first, then modules depending on them
	// - store: GORM/SQLite persistence
	// - session: Redis session token store
	// - push: WebSocket hub with heartbeat liveness
	// - task: lifecycle controller + event emitter
	// - notify: event consumer, notification fan-out
	// - api: driving adapter (Fiber HTTP/WebSocket server)
	app.Register(storeModule)
	app.Register(sessionModule)
	app.Register(pushModule)
	app.Register(taskModule)
	app.Register(notifyModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Persistence: GORM + SQLite")
	log.Println("  - Sessions: Redis opaque tokens")
	log.Println("  - Events: TaskCreated/TaskAccepted/TaskCompleted/TaskCancelled -> notify module -> durable rows + push")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                          - Health check")
	log.Println("  POST   /api/v1/tasks                    - Post a new task")
	log.Println("  GET    /api/v1/tasks                    - List tasks (?category=&status=)")
	log.Println("  GET    /api/v1/tasks/:id                - Get task details")
	log.Println("  POST   /api/v1/tasks/:id/accept         - Accept an open task (exclusive)")
	log.Println("  PUT    /api/v1/tasks/:id                - Update status (in-progress/completed/cancelled)")
	log.Println("  GET    /api/v1/notifications            - List notifications (?unread=true)")
	log.Println("  POST   /api/v1/notifications/:id/read   - Mark a notification read")
	log.Println("  POST   /api/v1/requests                 - Send a service request")
	log.Println("  GET    /api/v1/requests                 - List service requests")
	log.Println("  PUT    /api/v1/requests/:id             - Accept/reject a service request")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws?token=<session>):", port)
	log.Println("  Push-only channel; server pings every 30s, unresponsive connections are dropped.")
	log.Println("  Clients reconnect with capped exponential backoff and re-fetch /api/v1/notifications.")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
