package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"listing-chat-service/internal/listing"
	"listing-chat-service/internal/middleware"
	"listing-chat-service/internal/models"
	"listing-chat-service/internal/realtime"
	"listing-chat-service/internal/repositories"
)

const (
	maxMessageRunes = 5000

	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ConversationHandler manages the conversation and message endpoints.
type ConversationHandler struct {
	convRepo        repositories.ConversationRepository
	messageRepo     repositories.MessageRepository
	participantRepo repositories.ParticipantRepository
	resolver        listing.Resolver
	publisher       realtime.Publisher
	log             zerolog.Logger
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(
	convRepo repositories.ConversationRepository,
	messageRepo repositories.MessageRepository,
	participantRepo repositories.ParticipantRepository,
	resolver listing.Resolver,
	publisher realtime.Publisher,
	log zerolog.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		convRepo:        convRepo,
		messageRepo:     messageRepo,
		participantRepo: participantRepo,
		resolver:        resolver,
		publisher:       publisher,
		log:             log.With().Str("component", "handlers").Logger(),
	}
}

// CreateConversation creates or returns the conversation between the caller
// and the listing's seller.
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req struct {
		ListingID int64 `json:"listing_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buyerID := c.GetInt64(middleware.UserIDKey)

	resolved, err := h.resolver.Resolve(c.Request.Context(), req.ListingID)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
			return
		}
		h.log.Error().Err(err).Int64("listing_id", req.ListingID).Msg("listing resolve failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "listing service unavailable"})
		return
	}

	if resolved.SellerID == buyerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation about your own listing"})
		return
	}

	title := resolved.Title
	conv, _, err := h.convRepo.CreateOrGet(c.Request.Context(), req.ListingID, buyerID, resolved.SellerID, &title)
	if err != nil {
		h.log.Error().Err(err).Msg("conversation create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	summary, err := h.buildSummary(c, conv, buyerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListConversations returns the caller's conversations, most recently
// active first, each with its unread count and last message.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)

	convs, err := h.convRepo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary, err := h.buildSummary(c, conv, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
			return
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// GetConversation returns a conversation with one page of its messages,
// oldest first.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	conv, userID, ok := h.authorize(c)
	if !ok {
		return
	}

	page, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	total, err := h.messageRepo.Count(c.Request.Context(), conv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	msgs, err := h.messageRepo.ListPage(c.Request.Context(), conv.ID, (page-1)*limit, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	summary, err := h.buildSummary(c, conv, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": summary,
		"messages":     msgs,
		"meta": models.PageMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages(total, limit),
		},
	})
}

// PostMessage appends a message, advances the sender's read pointer and
// fans the event out to the realtime channels.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	conv, userID, ok := h.authorize(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must not be blank"})
		return
	}
	if utf8.RuneCountInString(req.Content) > maxMessageRunes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content exceeds maximum length"})
		return
	}

	msg, err := h.messageRepo.Append(c.Request.Context(), conv.ID, userID, req.Content)
	if err != nil {
		h.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("message append failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	// The sender has read everything up to their own message. The message is
	// already durable, so a pointer failure is logged rather than surfaced.
	if err := h.participantRepo.AdvanceReadPointer(c.Request.Context(), conv.ID, userID, msg.ID); err != nil {
		h.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("sender read pointer advance failed")
	}

	h.publishMessageCreated(c, conv, msg)

	c.JSON(http.StatusCreated, msg)
}

// MarkAsRead advances the caller's read pointer to the latest message.
// Idempotent; a no-op on an empty conversation.
func (h *ConversationHandler) MarkAsRead(c *gin.Context) {
	conv, userID, ok := h.authorize(c)
	if !ok {
		return
	}

	latest, err := h.messageRepo.Latest(c.Request.Context(), conv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	if latest != nil {
		if err := h.participantRepo.AdvanceReadPointer(c.Request.Context(), conv.ID, userID, latest.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark as read"})
			return
		}
	}

	summary, err := h.buildSummary(c, conv, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Typing pushes a typing notification to the conversation channel. Nothing
// is persisted; clients throttle their own emission.
func (h *ConversationHandler) Typing(c *gin.Context) {
	conv, userID, ok := h.authorize(c)
	if !ok {
		return
	}

	_ = h.publisher.Publish(c.Request.Context(), realtime.ConversationChannel(conv.ID), realtime.Event{
		Event:      realtime.EventUserTyping,
		Channel:    realtime.ConversationChannel(conv.ID),
		OccurredAt: time.Now().UTC(),
		Data: realtime.TypingPayload{
			ConversationID: conv.ID,
			UserID:         userID,
			DisplayName:    c.GetString(middleware.DisplayNameKey),
		},
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// authorize loads the conversation and verifies the caller is one of its two
// participants: 404 when the conversation does not exist, 403 when the
// caller is not a member.
func (h *ConversationHandler) authorize(c *gin.Context) (models.Conversation, int64, bool) {
	conversationID := c.Param("conversation_id")
	userID := c.GetInt64(middleware.UserIDKey)

	conv, err := h.convRepo.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		}
		return models.Conversation{}, 0, false
	}
	if !conv.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return models.Conversation{}, 0, false
	}
	return conv, userID, true
}

func (h *ConversationHandler) buildSummary(c *gin.Context, conv models.Conversation, userID int64) (models.ConversationSummary, error) {
	unread, err := h.participantRepo.UnreadCount(c.Request.Context(), conv.ID, userID)
	if err != nil {
		h.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("unread count failed")
		return models.ConversationSummary{}, err
	}
	latest, err := h.messageRepo.Latest(c.Request.Context(), conv.ID)
	if err != nil {
		h.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("latest message lookup failed")
		return models.ConversationSummary{}, err
	}
	return models.ConversationSummary{
		Conversation: conv,
		UnreadCount:  unread,
		LastMessage:  latest,
	}, nil
}

// publishMessageCreated fans the new message out: the full payload to the
// conversation channel, a truncated preview to the recipient's personal
// channel. Both are best-effort; the publisher logs its own failures.
func (h *ConversationHandler) publishMessageCreated(c *gin.Context, conv models.Conversation, msg models.Message) {
	conversationChannel := realtime.ConversationChannel(conv.ID)
	_ = h.publisher.Publish(c.Request.Context(), conversationChannel, realtime.Event{
		Event:      realtime.EventMessageCreated,
		Channel:    conversationChannel,
		OccurredAt: msg.CreatedAt,
		Data:       realtime.MessageCreatedPayload{Message: msg},
	})

	recipientChannel := realtime.UserChannel(conv.Participant(msg.SenderID))
	_ = h.publisher.Publish(c.Request.Context(), recipientChannel, realtime.Event{
		Event:      realtime.EventMessageCreated,
		Channel:    recipientChannel,
		OccurredAt: msg.CreatedAt,
		Data: realtime.MessagePreviewPayload{
			ConversationID: conv.ID,
			MessageID:      msg.ID,
			SenderID:       msg.SenderID,
			Preview:        realtime.Preview(msg.Content),
			CreatedAt:      msg.CreatedAt,
		},
	})
}

func parsePagination(c *gin.Context) (int, int, bool) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return 0, 0, false
		}
		page = parsed
	}
	if page < 1 {
		page = 1
	}

	limit := defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return 0, 0, false
		}
		limit = parsed
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit, true
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
