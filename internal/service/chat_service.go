package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/creditchek/devbot/internal/config"
	"github.com/creditchek/devbot/internal/model"
	appErr "github.com/creditchek/devbot/internal/pkg/errors"
)

// ChatStore is the append-only exchange log the orchestrator reads and
// writes. Ordering direction is explicit on reads.
type ChatStore interface {
	Append(ctx context.Context, exchange *model.ChatExchange) error
	ListByUser(ctx context.Context, userID string, newestFirst bool, limit int) ([]model.ChatExchange, error)
}

// IndexQuerier is the similarity-query capability of the vector index. One
// call embeds the input, retrieves context and generates the answer; the
// whole step is opaque and may be slow.
type IndexQuerier interface {
	Query(ctx context.Context, input string, history []model.HistoryPair) (string, error)
}

type ChatService struct {
	store ChatStore
	index IndexQuerier
	cfg   config.ChatConfig
}

func NewChatService(store ChatStore, index IndexQuerier, cfg config.ChatConfig) *ChatService {
	return &ChatService{store: store, index: index, cfg: cfg}
}

// Handle turns one user message into one persisted exchange. History is
// read fresh from storage per call; nothing is written unless generation
// succeeds.
func (s *ChatService) Handle(ctx context.Context, userID, rawInput string) (*model.ChatExchange, error) {
	input := strings.TrimSpace(rawInput)
	if input == "" {
		return nil, fmt.Errorf("%w: input cannot be empty", appErr.ErrInvalidInput)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))

	recent, err := s.store.ListByUser(ctx, userID, true, s.cfg.MaxHistory)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := newHistoryBuffer(s.cfg.MaxHistory)
	for i := len(recent) - 1; i >= 0; i-- {
		history.Push(model.HistoryPair{Input: recent[i].UserInput, Response: recent[i].Response})
	}

	effective := input
	if s.cfg.IncludeSystemPrompt != nil && *s.cfg.IncludeSystemPrompt {
		effective = s.cfg.SystemPrompt + "\n\n" + input
	}
	response, err := s.index.Query(ctx, effective, history.Pairs())
	if err != nil {
		return nil, err
	}

	exchange := &model.ChatExchange{
		ID:        newID(),
		UserID:    userID,
		UserInput: input,
		Response:  response,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.store.Append(ctx, exchange); err != nil {
		return nil, fmt.Errorf("persist exchange: %w", err)
	}
	logger.Info("chat exchange persisted", zap.String("exchange_id", exchange.ID), zap.Int("history_pairs", history.Len()))
	return exchange, nil
}

// History returns every exchange owned by the user, oldest first.
func (s *ChatService) History(ctx context.Context, userID string) ([]model.ChatExchange, error) {
	return s.store.ListByUser(ctx, userID, false, 0)
}
