package api

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Deekshith9238/testingfhm/domain/market"
	"github.com/Deekshith9238/testingfhm/modules/push"
	"github.com/Deekshith9238/testingfhm/modules/task"
)

// setupRoutes configures all HTTP routes.
func (m *Module) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint; authenticated before the upgrade
	m.app.Use("/ws", m.wsUpgrade)
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1, session-authenticated
	api := m.app.Group("/api/v1", AuthMiddleware(m.sessions))

	api.Post("/tasks", m.createTask)
	api.Get("/tasks", m.listTasks)
	api.Get("/tasks/:id", m.getTask)
	api.Post("/tasks/:id/accept", m.acceptTask)
	api.Put("/tasks/:id", m.updateTask)

	api.Get("/notifications", m.listNotifications)
	api.Post("/notifications/:id/read", m.markNotificationRead)

	api.Post("/requests", m.createRequest)
	api.Get("/requests", m.listRequests)
	api.Put("/requests/:id", m.respondRequest)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":          "api",
			"connected_users": m.hub.UserCount(),
		},
	})
}

// createTask handles POST /api/v1/tasks. The authenticated actor is the
// task's client.
func (m *Module) createTask(c *fiber.Ctx) error {
	var in task.CreateTaskInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}
	in.ClientID = actorID(c)

	t, err := m.taskModule.Service().Create(c.UserContext(), in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// listTasks handles GET /api/v1/tasks with optional category and
// status filters.
func (m *Module) listTasks(c *fiber.Ctx) error {
	tasks, err := m.taskModule.Service().List(c.UserContext(),
		c.Query("category"), market.TaskStatus(c.Query("status")))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(tasks)
}

// getTask handles GET /api/v1/tasks/:id.
func (m *Module) getTask(c *fiber.Ctx) error {
	t, err := m.taskModule.Service().Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(t)
}

// acceptTask handles POST /api/v1/tasks/:id/accept. The accepting
// provider is the actor's provider profile; a user without one cannot
// accept tasks.
func (m *Module) acceptTask(c *fiber.Ctx) error {
	provider, err := m.storeModule.Directory().GetProviderByUserID(c.UserContext(), actorID(c))
	if err != nil {
		if errors.Is(err, market.ErrProviderNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Error:   "forbidden",
				Message: "A provider profile is required to accept tasks",
			})
		}
		return errorJSON(c, err)
	}

	t, err := m.taskModule.Service().Accept(c.UserContext(), c.Params("id"), provider.ID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(t)
}

// updateTask handles PUT /api/v1/tasks/:id. Completion and cancellation
// are folded into the generic status update.
func (m *Module) updateTask(c *fiber.Ctx) error {
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	svc := m.taskModule.Service()
	taskID, actor := c.Params("id"), actorID(c)

	var t *market.Task
	var err error
	switch req.Status {
	case market.TaskStatusInProgress:
		t, err = svc.MarkInProgress(c.UserContext(), taskID, actor)
	case market.TaskStatusCompleted:
		t, err = svc.Complete(c.UserContext(), taskID, actor)
	case market.TaskStatusCancelled:
		t, err = svc.Cancel(c.UserContext(), taskID, actor)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Status must be one of: in-progress, completed, cancelled",
		})
	}
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(t)
}

// listNotifications handles GET /api/v1/notifications. The push channel
// is best-effort; this durable listing is the source of truth a client
// re-fetches after reconnecting.
func (m *Module) listNotifications(c *fiber.Ctx) error {
	unreadOnly := c.Query("unread") == "true"
	notifications, err := m.storeModule.Notifications().
		ListByRecipient(c.UserContext(), actorID(c), unreadOnly)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(notifications)
}

// markNotificationRead handles POST /api/v1/notifications/:id/read.
func (m *Module) markNotificationRead(c *fiber.Ctx) error {
	err := m.storeModule.Notifications().
		MarkRead(c.UserContext(), c.Params("id"), actorID(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// createRequest handles POST /api/v1/requests. The actor's provider
// profile is the request's sender.
func (m *Module) createRequest(c *fiber.Ctx) error {
	var in task.CreateRequestInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	provider, err := m.storeModule.Directory().GetProviderByUserID(c.UserContext(), actorID(c))
	if err != nil {
		if errors.Is(err, market.ErrProviderNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Error:   "forbidden",
				Message: "A provider profile is required to send service requests",
			})
		}
		return errorJSON(c, err)
	}
	in.ProviderID = provider.ID

	req, err := m.taskModule.Service().CreateRequest(c.UserContext(), in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// listRequests handles GET /api/v1/requests: requests the actor
// participates in as client or provider.
func (m *Module) listRequests(c *fiber.Ctx) error {
	actor := actorID(c)
	providerID := ""
	if provider, err := m.storeModule.Directory().GetProviderByUserID(c.UserContext(), actor); err == nil {
		providerID = provider.ID
	}

	requests, err := m.storeModule.Requests().ListByUser(c.UserContext(), actor, providerID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(requests)
}

// respondRequest handles PUT /api/v1/requests/:id.
func (m *Module) respondRequest(c *fiber.Ctx) error {
	var req RespondRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}
	if req.Action != "accept" && req.Action != "reject" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Action must be accept or reject",
		})
	}

	updated, err := m.taskModule.Service().
		RespondRequest(c.UserContext(), c.Params("id"), actorID(c), req.Action == "accept")
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(updated)
}

// wsUpgrade authenticates the WebSocket handshake before the upgrade.
// A missing or invalid credential is rejected with 401 and never
// reaches the hub.
func (m *Module) wsUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		token = bearerToken(c)
	}
	userID, err := m.sessions.Validate(c.UserContext(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired session token",
		})
	}

	c.Locals(UserContextKey, userID)
	return c.Next()
}

// handleWebSocket registers the connection with the push hub and drains
// it until it closes. Outbound traffic flows exclusively through the
// hub; the read loop only feeds the liveness probe.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals(UserContextKey).(string)
	if !ok || userID == "" {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
			time.Now().Add(time.Second))
		_ = c.Close()
		return
	}

	client := m.hub.Register(userID, c)
	defer func() {
		m.hub.Unregister(client)
		_ = c.Close()
		log.Printf("[api] WebSocket client disconnected: %s", userID)
	}()

	log.Printf("[api] WebSocket client connected: %s", userID)

	pongWait := 2 * push.DefaultHeartbeatInterval
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		m.hub.Pong(client)
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	if err := c.WriteJSON(fiber.Map{"type": "connected"}); err != nil {
		log.Printf("[api] Failed to send welcome: %v", err)
		return
	}

	// Drain incoming frames; the channel is one-way, push only.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Read error from %s: %v", userID, err)
			}
			break
		}
	}
}
