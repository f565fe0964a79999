package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modwarden/backend/internal/bot"
	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/repository"
)

// CommandHandler maps the HTTP command surface onto bot operations.
type CommandHandler struct {
	bot         *bot.Bot
	offenseRepo *repository.OffenseRepository
	filterRepo  *repository.FilterRepository
	eventRepo   *repository.EventRepository
	domain      string
}

func NewCommandHandler(
	b *bot.Bot,
	offenseRepo *repository.OffenseRepository,
	filterRepo *repository.FilterRepository,
	eventRepo *repository.EventRepository,
	domain string,
) *CommandHandler {
	return &CommandHandler{
		bot:         b,
		offenseRepo: offenseRepo,
		filterRepo:  filterRepo,
		eventRepo:   eventRepo,
		domain:      domain,
	}
}

type userCommandRequest struct {
	Username string `json:"username" binding:"required"`
}

type filterRequest struct {
	Pattern   string     `json:"pattern" binding:"required"`
	IsRegex   bool       `json:"is_regex"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type modmailRequest struct {
	Body string `json:"body" binding:"required"`
}

// Track starts forwarding a user's new content to the chat channel
func (h *CommandHandler) Track(c *gin.Context) {
	h.userCommand(c, h.bot.Track, "User is now tracked", "User was already tracked")
}

// Untrack stops forwarding a user's content
func (h *CommandHandler) Untrack(c *gin.Context) {
	h.userCommand(c, h.bot.Untrack, "User is no longer tracked", "User was not tracked")
}

// Botban flags a user for automatic content removal
func (h *CommandHandler) Botban(c *gin.Context) {
	h.userCommand(c, h.bot.Botban, "User is now botbanned", "User was already botbanned")
}

// Unbotban lifts a botban
func (h *CommandHandler) Unbotban(c *gin.Context) {
	h.userCommand(c, h.bot.Unbotban, "User is no longer botbanned", "User was not botbanned")
}

// MuteWarnings suppresses threshold warnings for a user
func (h *CommandHandler) MuteWarnings(c *gin.Context) {
	h.muteCommand(c, true, "Warnings muted for user", "Warnings were already muted")
}

// UnmuteWarnings re-enables threshold warnings for a user
func (h *CommandHandler) UnmuteWarnings(c *gin.Context) {
	h.muteCommand(c, false, "Warnings unmuted for user", "Warnings were not muted")
}

// Summary returns a user's offense record and recent events
func (h *CommandHandler) Summary(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		ErrorResponse(c, http.StatusBadRequest, "Username required")
		return
	}

	record, err := h.offenseRepo.Get(c.Request.Context(), username, h.domain)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to load offense record")
		return
	}
	if record == nil {
		ErrorResponse(c, http.StatusNotFound, "No record for user")
		return
	}

	events, err := h.eventRepo.ListForUser(c.Request.Context(), h.domain, username, 20)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to load events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record": record,
		"events": events,
	})
}

// ListFlagged returns all users with the given flag set
func (h *CommandHandler) ListFlagged(c *gin.Context) {
	flag := models.OffenseFlag(c.DefaultQuery("flag", string(models.FlagTracked)))

	records, err := h.offenseRepo.ListFlagged(c.Request.Context(), h.domain, flag)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Failed to load flagged users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": records})
}

// RecentEvents returns the latest entries of the bot's audit trail
func (h *CommandHandler) RecentEvents(c *gin.Context) {
	events, err := h.eventRepo.ListRecent(c.Request.Context(), h.domain, 50)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to load events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// AddFilter installs a title filter
func (h *CommandHandler) AddFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.bot.AddFilter(c.Request.Context(), req.Pattern, req.IsRegex, req.ExpiresAt); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to add filter")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Filter added"})
}

// RemoveFilter deletes a title filter by pattern
func (h *CommandHandler) RemoveFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.bot.RemoveFilter(c.Request.Context(), req.Pattern); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to remove filter")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Filter removed"})
}

// ListFilters returns the active filters
func (h *CommandHandler) ListFilters(c *gin.Context) {
	filters, err := h.filterRepo.List(c.Request.Context(), h.domain)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to load filters")
		return
	}
	c.JSON(http.StatusOK, gin.H{"filters": filters})
}

// SendModmail relays a message to the platform's moderator inbox
func (h *CommandHandler) SendModmail(c *gin.Context) {
	var req modmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.bot.SendModmail(c.Request.Context(), req.Body, h.actor(c)); err != nil {
		ErrorResponse(c, http.StatusBadGateway, "Failed to send modmail")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Modmail sent"})
}

type flagCommand func(ctx context.Context, username, author string) (bool, error)

func (h *CommandHandler) userCommand(c *gin.Context, command flagCommand, changedMsg, unchangedMsg string) {
	var req userCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	changed, err := command(c.Request.Context(), req.Username, h.actor(c))
	if errors.Is(err, bot.ErrBotbansDisabled) || errors.Is(err, bot.ErrTrackingDisabled) {
		ErrorResponse(c, http.StatusForbidden, err.Error())
		return
	}
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Command failed")
		return
	}

	message := changedMsg
	if !changed {
		message = unchangedMsg
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "username": models.NormalizeUsername(req.Username)})
}

func (h *CommandHandler) muteCommand(c *gin.Context, muted bool, changedMsg, unchangedMsg string) {
	var req userCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	changed, err := h.bot.MuteWarnings(c.Request.Context(), req.Username, muted)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Command failed")
		return
	}

	message := changedMsg
	if !changed {
		message = unchangedMsg
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "username": models.NormalizeUsername(req.Username)})
}

// actor returns the operator identity attached by the auth middleware.
func (h *CommandHandler) actor(c *gin.Context) string {
	if email, exists := c.Get("email"); exists {
		if s, ok := email.(string); ok {
			return s
		}
	}
	return "operator"
}
