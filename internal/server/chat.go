package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seniormts/seniormts/agent"
	"github.com/seniormts/seniormts/internal/telemetry"
	"github.com/seniormts/seniormts/session"
)

// ChatHandler serves the chat turn and session transcript endpoints.
type ChatHandler struct {
	Agent    *agent.Agent
	Sessions session.Store
	Logger   *log.Logger
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"user_input"`
}

type chatResponse struct {
	Output string `json:"output"`
}

func (h *ChatHandler) Register(e *echo.Echo) {
	e.POST("/chat", h.chat)
	e.GET("/session/:id", h.transcript)
	e.GET("/", h.root)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}
	if strings.TrimSpace(req.UserInput) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_input is required")
	}

	ctx := c.Request().Context()
	history, err := h.Sessions.Get(ctx, req.SessionID)
	if err != nil {
		telemetry.ChatRequests.WithLabelValues("error").Inc()
		return err
	}

	output, err := h.Agent.Run(ctx, history, req.UserInput)
	if err != nil {
		telemetry.ChatRequests.WithLabelValues("error").Inc()
		return err
	}

	now := time.Now()
	if err := h.Sessions.Append(ctx, req.SessionID,
		session.Message{Role: session.RoleUser, Content: req.UserInput, CreatedAt: now},
		session.Message{Role: session.RoleAssistant, Content: output, CreatedAt: now},
	); err != nil {
		// The user already has an answer; losing one history entry is the
		// lesser failure. Log and respond.
		h.Logger.Printf("append session %s: %v", req.SessionID, err)
	}

	telemetry.ChatRequests.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, chatResponse{Output: output})
}

func (h *ChatHandler) transcript(c echo.Context) error {
	id := c.Param("id")
	msgs, err := h.Sessions.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []session.Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": msgs})
}

func (h *ChatHandler) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "SeniorMTS agent API is running"})
}
