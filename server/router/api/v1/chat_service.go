package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/echoapp/echo/store"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatMessageResponse struct {
	ID             string    `json:"id"`
	Message        string    `json:"message"`
	Response       string    `json:"response"`
	ResponseTimeMs *int      `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

func convertChatMessage(message *store.ChatMessage) *chatMessageResponse {
	return &chatMessageResponse{
		ID:             message.ID,
		Message:        message.Message,
		Response:       message.Response,
		ResponseTimeMs: message.ResponseTimeMs,
		CreatedAt:      message.CreatedAt,
	}
}

// Chat sends one message to the assistant. Requests beyond the rate limit
// are rejected rather than queued so the client can back off.
func (s *APIV1Service) Chat(c echo.Context) error {
	request := &chatRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if err := validateChatMessage(request.Message); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if !s.chatLimiter.Allow() {
		s.Metrics.ChatRateLimited()
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many chat requests, slow down")
	}

	began := time.Now()
	message, err := s.Assistant.Chat(c.Request().Context(), request.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process message").SetInternal(err)
	}
	s.Metrics.ObserveChat(time.Since(began))
	return c.JSON(http.StatusOK, convertChatMessage(message))
}

// GetChatHistory returns the most recent exchanges in chronological order.
func (s *APIV1Service) GetChatHistory(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		if parsed > maxListLimit {
			parsed = maxListLimit
		}
		limit = parsed
	}

	messages, err := s.Assistant.History(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load chat history").SetInternal(err)
	}

	response := make([]*chatMessageResponse, 0, len(messages))
	for _, message := range messages {
		response = append(response, convertChatMessage(message))
	}
	return c.JSON(http.StatusOK, response)
}
