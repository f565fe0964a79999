package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/modwarden/backend/internal/bot"
	"github.com/modwarden/backend/internal/repository"
	"github.com/rs/zerolog/log"
)

// The callback endpoint is reachable without operator auth, so button presses
// are throttled per chat user before any command runs.
const (
	buttonRatePerSec = 1
	buttonBurst      = 5
)

// ActionLimiter throttles actions per caller. Backed by Redis so the budget
// holds across server instances. May be nil, in which case no throttling.
type ActionLimiter interface {
	AllowAction(ctx context.Context, caller, action string, rate int, burst int) (bool, error)
}

// ButtonHandler receives interactive button callbacks from the chat
// platform. Button values encode "command_username"; the part before the
// first underscore is the command.
type ButtonHandler struct {
	bot         *bot.Bot
	offenseRepo *repository.OffenseRepository
	limiter     ActionLimiter
	domain      string
}

func NewButtonHandler(b *bot.Bot, offenseRepo *repository.OffenseRepository, limiter ActionLimiter, domain string) *ButtonHandler {
	return &ButtonHandler{
		bot:         b,
		offenseRepo: offenseRepo,
		limiter:     limiter,
		domain:      domain,
	}
}

type buttonPayload struct {
	CallbackID string `json:"callback_id"`
	User       struct {
		Name string `json:"name"`
	} `json:"user"`
	Actions []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"actions"`
}

// HandleCallback processes one button press and replies with the text shown
// to the operator in place of the buttons.
func (h *ButtonHandler) HandleCallback(c *gin.Context) {
	raw := c.PostForm("payload")
	if raw == "" {
		ErrorResponse(c, http.StatusBadRequest, "Payload required")
		return
	}

	var payload buttonPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid payload")
		return
	}
	if len(payload.Actions) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "No action in payload")
		return
	}

	command, username, found := strings.Cut(payload.Actions[0].Value, "_")
	if !found || username == "" {
		ErrorResponse(c, http.StatusBadRequest, "Malformed action value")
		return
	}
	actor := payload.User.Name

	if h.limiter != nil {
		allowed, err := h.limiter.AllowAction(c.Request.Context(), actor, "button", buttonRatePerSec, buttonBurst)
		if err != nil {
			// Limiter outage must not block moderation; let the press through.
			log.Warn().Err(err).Str("actor", actor).Msg("button limiter unavailable")
		} else if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"text": "Too many button presses, try again shortly."})
			return
		}
	}

	text, err := h.dispatch(c, command, username, actor)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"text": fmt.Sprintf("Command failed: %v", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *ButtonHandler) dispatch(c *gin.Context, command, username, actor string) (string, error) {
	ctx := c.Request.Context()

	switch command {
	case "verify":
		record, err := h.offenseRepo.Get(ctx, username, h.domain)
		if err != nil {
			return "", err
		}
		if record == nil {
			return fmt.Sprintf("No record for %s.", username), nil
		}
		return fmt.Sprintf("%s: %d removed comments, %d removed submissions, %d bans, %d approved comments, %d approved submissions.",
			record.Username, record.RemovedComments, record.RemovedSubmissions,
			record.Bans, record.ApprovedComments, record.ApprovedSubmissions), nil

	case "track":
		if _, err := h.bot.Track(ctx, username, actor); err != nil {
			return "", err
		}
		return fmt.Sprintf("Now tracking %s.", username), nil

	case "untrack":
		if _, err := h.bot.Untrack(ctx, username, actor); err != nil {
			return "", err
		}
		return fmt.Sprintf("No longer tracking %s.", username), nil

	case "botban":
		if _, err := h.bot.Botban(ctx, username, actor); err != nil {
			return "", err
		}
		return fmt.Sprintf("Botbanned %s.", username), nil

	case "unbotban":
		if _, err := h.bot.Unbotban(ctx, username, actor); err != nil {
			return "", err
		}
		return fmt.Sprintf("Lifted botban on %s.", username), nil

	case "mute":
		if _, err := h.bot.MuteWarnings(ctx, username, true); err != nil {
			return "", err
		}
		return fmt.Sprintf("Muted warnings for %s.", username), nil

	default:
		return "", fmt.Errorf("unknown command %q", command)
	}
}
