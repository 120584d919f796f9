package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/creditchek/devbot/internal/model"
	"github.com/creditchek/devbot/internal/pkg/errcode"
	appErr "github.com/creditchek/devbot/internal/pkg/errors"
	"github.com/creditchek/devbot/internal/pkg/response"
	"github.com/creditchek/devbot/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	UserInput string `json:"user_input"`
}

type chatView struct {
	UserInput string    `json:"user_input"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

func viewExchange(exchange model.ChatExchange) chatView {
	return chatView{
		UserInput: exchange.UserInput,
		Response:  exchange.Response,
		Timestamp: time.UnixMilli(exchange.Timestamp).UTC(),
	}
}

func (h *ChatHandler) Post(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	exchange, err := h.chat.Handle(c.Request.Context(), getUserID(c), req.UserInput)
	if err != nil {
		if appErr.IsInvalidInput(err) {
			response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "input cannot be empty")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, viewExchange(*exchange))
}

func (h *ChatHandler) History(c *gin.Context) {
	exchanges, err := h.chat.History(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	items := make([]chatView, 0, len(exchanges))
	for _, exchange := range exchanges {
		items = append(items, viewExchange(exchange))
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}
