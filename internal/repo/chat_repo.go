package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/creditchek/devbot/internal/model"
	"github.com/creditchek/devbot/internal/pkg/dbutil"
)

var chatFields = []string{"id", "user_id", "user_input", "response", "ts"}

// ChatRepo is an append-only log of chat exchanges partitioned by user.
// Exchanges are never updated or deleted here.
type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Append(ctx context.Context, exchange *model.ChatExchange) error {
	data := map[string]interface{}{
		"id":         exchange.ID,
		"user_id":    exchange.UserID,
		"user_input": exchange.UserInput,
		"response":   exchange.Response,
		"ts":         exchange.Timestamp,
	}
	sqlStr, args, err := builder.BuildInsert("chat_exchanges", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListByUser returns the user's exchanges. The ordering direction is an
// explicit part of the contract: newestFirst=true sorts by descending
// timestamp, otherwise ascending. limit=0 returns everything.
func (r *ChatRepo) ListByUser(ctx context.Context, userID string, newestFirst bool, limit int) ([]model.ChatExchange, error) {
	where := map[string]interface{}{
		"user_id": userID,
	}
	if newestFirst {
		where["_orderby"] = "ts desc"
	} else {
		where["_orderby"] = "ts asc"
	}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	sqlStr, args, err := builder.BuildSelect("chat_exchanges", where, chatFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []model.ChatExchange
	for rows.Next() {
		var item model.ChatExchange
		if err := rows.Scan(&item.ID, &item.UserID, &item.UserInput, &item.Response, &item.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
