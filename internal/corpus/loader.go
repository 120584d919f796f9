package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/creditchek/devbot/internal/model"
)

// Loader turns stored snapshots into an in-memory document set. Keys are
// read in the order the store lists them (stores list sorted), so repeated
// loads of an unchanged corpus yield the same documents in the same order.
type Loader struct {
	store Store
}

func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

func (l *Loader) Load(ctx context.Context) ([]model.Document, error) {
	logger := logutil.GetLogger(ctx)
	keys, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	var docs []model.Document
	for _, key := range keys {
		doc, ok, err := l.loadOne(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load corpus document %s: %w", key, err)
		}
		if !ok {
			logger.Debug("skipping unsupported corpus entry", zap.String("key", key))
			continue
		}
		docs = append(docs, doc)
	}
	logger.Info("corpus loaded", zap.Int("documents", len(docs)))
	return docs, nil
}

func (l *Loader) loadOne(ctx context.Context, key string) (model.Document, bool, error) {
	rc, err := l.store.Open(ctx, key)
	if err != nil {
		return model.Document{}, false, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return model.Document{}, false, err
	}
	switch {
	case strings.HasSuffix(key, ".json"):
		var doc model.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return model.Document{}, false, err
		}
		if doc.URL == "" {
			doc.URL = key
		}
		return doc, true, nil
	case strings.HasSuffix(key, ".md"):
		return model.Document{URL: key, Content: ExtractMarkdownText(string(data))}, true, nil
	case strings.HasSuffix(key, ".txt"):
		return model.Document{URL: key, Content: string(data)}, true, nil
	default:
		return model.Document{}, false, nil
	}
}
