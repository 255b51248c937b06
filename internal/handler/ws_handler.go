package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prostuti-app/prostuti-backend/internal/middleware"
	"github.com/prostuti-app/prostuti-backend/internal/service"
	"github.com/prostuti-app/prostuti-backend/internal/session"
	ws "github.com/prostuti-app/prostuti-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty origins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live mock-test attempt over WebSocket: the client
// sends answer/skip/mark/navigate actions, the server answers every
// mutation with a fresh state snapshot.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/tests/:id/attempt
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	studentID := claims.UserID
	ctx := context.Background()

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("test_id", testID.String()).
		Logger()

	// The attempt must already be in progress; the stream never starts one.
	snap, err := h.attemptService.GetState(ctx, testID, studentID)
	if err != nil {
		ws.WriteError(conn, "no in-progress attempt for this test")
		return
	}
	ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, Snapshot: snap})

	wsLog.Info().Msg("Student connected to attempt stream")

	for {
		action, raw, err := ws.ReadEnvelope(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch action {
		case ws.ActionAutosave:
			h.handleAutosave(ctx, conn, testID, studentID, raw)
		case ws.ActionSkip:
			h.mutate(ctx, conn, testID, studentID, func() error {
				return h.attemptService.Skip(ctx, testID, studentID)
			})
		case ws.ActionMark:
			var req ws.MarkRequest
			if json.Unmarshal(raw, &req) != nil {
				ws.WriteError(conn, "invalid mark payload")
				continue
			}
			h.mutate(ctx, conn, testID, studentID, func() error {
				return h.attemptService.ToggleMark(ctx, testID, studentID, req.Index)
			})
		case ws.ActionNavigate:
			var req ws.NavigateRequest
			if json.Unmarshal(raw, &req) != nil {
				ws.WriteError(conn, "invalid navigate payload")
				continue
			}
			h.mutate(ctx, conn, testID, studentID, func() error {
				return h.attemptService.Navigate(ctx, testID, studentID, req.Index)
			})
		case ws.ActionSubmit:
			h.handleSubmit(ctx, conn, wsLog, testID, studentID)
			return
		case ws.ActionPing:
			h.handlePing(ctx, conn, testID, studentID)
		default:
			wsLog.Warn().Str("action", string(action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(action))
		}
	}
}

// handleAutosave records one answer and echoes the new state.
func (h *WSHandler) handleAutosave(ctx context.Context, conn *websocket.Conn, testID uuid.UUID, studentID int, raw []byte) {
	var req ws.AutosaveRequest
	if json.Unmarshal(raw, &req) != nil {
		ws.WriteError(conn, "invalid autosave payload")
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		ws.WriteError(conn, "invalid question_id format")
		return
	}
	if req.OptionIndex == nil && req.Text == "" {
		ws.WriteError(conn, "option_index or text is required")
		return
	}

	h.mutate(ctx, conn, testID, studentID, func() error {
		return h.attemptService.Answer(ctx, testID, studentID, questionID, session.Answer{
			OptionIndex: req.OptionIndex,
			Text:        req.Text,
		})
	})
}

// handleSubmit finalizes the attempt and sends the graded result.
func (h *WSHandler) handleSubmit(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, testID uuid.UUID, studentID int) {
	attempt, err := h.attemptService.Submit(ctx, testID, studentID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Submit failed")
		ws.WriteError(conn, "submit failed")
		return
	}

	wsLog.Info().
		Int("total_score", attempt.TotalScore).
		Float64("percentage", attempt.DisplayPercentage()).
		Msg("Attempt submitted and graded")

	ws.WriteTyped(conn, ws.GradedResponse{
		Event:   ws.EventGraded,
		Status:  string(attempt.Status),
		Attempt: attemptView(attempt),
	})
}

// handlePing answers with the authoritative remaining time so clients
// can correct clock drift.
func (h *WSHandler) handlePing(ctx context.Context, conn *websocket.Conn, testID uuid.UUID, studentID int) {
	remaining := int64(0)
	if snap, err := h.attemptService.GetState(ctx, testID, studentID); err == nil {
		remaining = int64(snap.RemainingSeconds)
	}
	ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong, RemainingSeconds: remaining})
}

// mutate runs a session mutation and pushes the resulting snapshot.
func (h *WSHandler) mutate(ctx context.Context, conn *websocket.Conn, testID uuid.UUID, studentID int, fn func() error) {
	if err := fn(); err != nil {
		ws.WriteError(conn, err.Error())
		return
	}
	snap, err := h.attemptService.GetState(ctx, testID, studentID)
	if err != nil {
		ws.WriteError(conn, "state unavailable")
		return
	}
	ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, Snapshot: snap})
}
