package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/creditchek/devbot/internal/model"
)

type memStore struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string][]byte)}
}

func (m *memStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.saved))
	for k := range m.saved {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *memStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return io.NopCloser(bytes.NewReader(m.saved[key])), nil
}

func (m *memStore) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[key] = data
	return nil
}

func (m *memStore) docs(t *testing.T) map[string]model.Document {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.Document, len(m.saved))
	for _, data := range m.saved {
		var doc model.Document
		require.NoError(t, json.Unmarshal(data, &doc))
		out[doc.URL] = doc
	}
	return out
}

func TestCrawlerRun_FollowsSameDomainLinks(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<p>Home page text</p>
			<a href="/docs">docs</a>
			<a href="https://other.example.com/out">external</a>
		</body></html>`))
	})
	mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Docs page text</p><a href="/docs#section">anchor</a></body></html>`))
	})

	store := newMemStore()
	c := New(store, 10, time.Second)
	saved, err := c.Run(context.Background(), []string{server.URL + "/"})
	require.NoError(t, err)
	require.Equal(t, 2, saved)

	docs := store.docs(t)
	require.Contains(t, docs[server.URL+"/"].Content, "Home page text")
	require.Contains(t, docs[server.URL+"/docs"].Content, "Docs page text")
	require.NotContains(t, docs, "https://other.example.com/out")
}

func TestCrawlerRun_MaxPagesBound(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>text ` + r.URL.Path + `</p>
			<a href="/a">a</a><a href="/b">b</a><a href="/c">c</a></body></html>`))
	})

	store := newMemStore()
	c := New(store, 2, time.Second)
	saved, err := c.Run(context.Background(), []string{server.URL + "/"})
	require.NoError(t, err)
	require.Equal(t, 2, saved)
}

func TestCrawlerRun_SkipsNonHTML(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>page</p><a href="/data.json">data</a></body></html>`))
	})
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"k":"v"}`))
	})

	store := newMemStore()
	c := New(store, 10, time.Second)
	saved, err := c.Run(context.Background(), []string{server.URL + "/"})
	require.NoError(t, err)
	require.Equal(t, 1, saved)
}

func TestCrawlerRun_InvalidSeed(t *testing.T) {
	c := New(newMemStore(), 10, time.Second)
	_, err := c.Run(context.Background(), []string{"not a url"})
	require.Error(t, err)
}
