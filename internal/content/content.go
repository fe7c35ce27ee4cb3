// Package content fetches blog post metadata from the headless CMS.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agencyblog/internal/utils"
)

var ErrPostNotFound = errors.New("post not found")

type Post struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Locale string `json:"locale"`
}

type Source interface {
	Post(ctx context.Context, postID string) (*Post, error)
}

// HTTPSource reads posts from GET {baseURL}/posts/{id}.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
	cache   *utils.TTLCache[Post]
	ttl     time.Duration
}

func NewHTTPSource(baseURL, token string, timeout time.Duration) (*HTTPSource, error) {
	if baseURL == "" {
		return nil, errors.New("content source requires a base url")
	}
	cache, err := utils.NewTTLCache[Post](256)
	if err != nil {
		return nil, err
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
		ttl:     10 * time.Minute,
	}, nil
}

func (s *HTTPSource) Post(ctx context.Context, postID string) (*Post, error) {
	if p, ok := s.cache.Get(postID); ok {
		return &p, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/posts/"+url.PathEscape(postID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", postID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPostNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch post %s: cms returned %s", postID, resp.Status)
	}

	var p Post
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", postID, err)
	}
	if p.ID == "" {
		p.ID = postID
	}
	s.cache.Set(postID, p, s.ttl)
	return &p, nil
}

// URL builds the public link for a post, e.g. https://site/es/blog/my-post.
func URL(siteURL string, p *Post) string {
	path := "/blog/" + p.Slug
	if p.Locale != "" {
		path = "/" + p.Locale + path
	}
	return strings.TrimRight(siteURL, "/") + path
}

// Disabled is used when no CMS is configured; every post is reported missing, so notifications
// are skipped.
var Disabled Source = disabledSource{}

type disabledSource struct{}

func (disabledSource) Post(context.Context, string) (*Post, error) {
	return nil, ErrPostNotFound
}
