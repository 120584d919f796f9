package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/creditchek/devbot/internal/corpus"
	"github.com/creditchek/devbot/internal/model"
)

// Crawler walks a site breadth-first starting from the seed URLs, staying on
// the seed's domain, and writes one snapshot per page into the corpus store.
// It is a standalone corpus-building utility; the serving path never runs it.
type Crawler struct {
	client   *http.Client
	store    corpus.Store
	maxPages int
}

func New(store corpus.Store, maxPages int, timeout time.Duration) *Crawler {
	if maxPages <= 0 {
		maxPages = 200
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Crawler{
		client:   &http.Client{Timeout: timeout},
		store:    store,
		maxPages: maxPages,
	}
}

// Run crawls every seed in order and returns the number of pages saved.
func (c *Crawler) Run(ctx context.Context, seeds []string) (int, error) {
	logger := logutil.GetLogger(ctx)
	visited := make(map[string]bool)
	saved := 0
	for _, seed := range seeds {
		start, err := url.Parse(strings.TrimSpace(seed))
		if err != nil || start.Host == "" {
			return saved, fmt.Errorf("invalid seed url: %s", seed)
		}
		queue := []string{normalize(start)}
		for len(queue) > 0 && saved < c.maxPages {
			if err := ctx.Err(); err != nil {
				return saved, err
			}
			current := queue[0]
			queue = queue[1:]
			if visited[current] {
				continue
			}
			visited[current] = true

			page, links, err := c.fetch(ctx, current)
			if err != nil {
				logger.Warn("fetch failed", zap.String("url", current), zap.Error(err))
				continue
			}
			if page != nil {
				if err := c.save(ctx, *page); err != nil {
					return saved, fmt.Errorf("save snapshot for %s: %w", current, err)
				}
				saved++
			}
			for _, link := range links {
				if link.Host != start.Host {
					continue
				}
				normalized := normalize(link)
				if !visited[normalized] {
					queue = append(queue, normalized)
				}
			}
		}
	}
	logger.Info("crawl finished", zap.Int("pages", saved), zap.Int("visited", len(visited)))
	return saved, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*model.Document, []*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return nil, nil, nil
	}
	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	base, _ := url.Parse(pageURL)
	text, links := walkPage(root, base)
	if strings.TrimSpace(text) == "" {
		return nil, links, nil
	}
	return &model.Document{
		URL:       pageURL,
		Content:   text,
		FetchedAt: time.Now().UnixMilli(),
	}, links, nil
}

func (c *Crawler) save(ctx context.Context, doc model.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	hash := sha256.Sum256([]byte(doc.URL))
	key := hex.EncodeToString(hash[:]) + ".json"
	return c.store.Save(ctx, key, data)
}

// walkPage extracts the page's visible text and its outgoing links in one
// pass. Script and style contents are skipped.
func walkPage(root *html.Node, base *url.URL) (string, []*url.URL) {
	var sb strings.Builder
	var links []*url.URL
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "a":
				for _, attr := range n.Attr {
					if attr.Key != "href" {
						continue
					}
					if ref, err := url.Parse(attr.Val); err == nil {
						resolved := base.ResolveReference(ref)
						if resolved.Scheme == "http" || resolved.Scheme == "https" {
							links = append(links, resolved)
						}
					}
				}
			}
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteByte('\n')
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return strings.TrimSpace(sb.String()), links
}

// normalize drops the fragment so "#section" anchors do not create
// duplicate queue entries.
func normalize(u *url.URL) string {
	clone := *u
	clone.Fragment = ""
	return clone.String()
}
