package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/services"
	"github.com/girishiitm/synergysphere/pkg/response"
)

// MessageHandler exposes project discussion threads.
type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// GET /api/projects/:id/messages
func (h *MessageHandler) List(c *gin.Context) {
	thread, err := h.messages.ListForProject(
		requestContext(c),
		middleware.UserID(c),
		c.Param("id"),
		parseIntQuery(c, "limit", 50),
		parseIntQuery(c, "offset", 0),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, thread)
}

type createMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// POST /api/projects/:id/messages
func (h *MessageHandler) Create(c *gin.Context) {
	var req createMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	message, err := h.messages.Create(requestContext(c), middleware.UserID(c), c.Param("id"), services.CreateMessageInput{
		Content: req.Content,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, message)
}

// DELETE /api/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	if err := h.messages.Delete(requestContext(c), middleware.UserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Message deleted"})
}
