// Package server implements the chat-server client collaborator: an
// authenticated request/response API plus the real-time websocket stream.
// Everything it learns flows to the dispatcher through a single event
// channel; retry and backoff live here, never in the dispatcher.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/drake/relay/chat"
)

const apiPrefix = "/api/v4"

// Stats holds connection statistics for the debug monitor.
type Stats struct {
	Connected     bool
	EventsEmitted uint64
	Reconnects    uint64
	LastEventTime time.Time
}

// Client talks to a Mattermost-style chat server.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client

	// Stable channel the dispatcher reads from. Never closes while the
	// client runs.
	events chan chat.Event

	connected     atomic.Bool
	eventsEmitted atomic.Uint64
	reconnects    atomic.Uint64
	lastEventTime atomic.Int64
}

// APIError is a structured error from the server.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ID         string `json:"id"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// UserMessage implements chat.UserMessager.
func (e *APIError) UserMessage() string { return e.Message }

var _ chat.Server = (*Client)(nil)

// New creates a client for the given server URL and session token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		events:  make(chan chat.Event, 256),
	}
}

// Events implements chat.Server.
func (c *Client) Events() <-chan chat.Event { return c.events }

// Stats returns current connection statistics.
func (c *Client) Stats() Stats {
	last := time.Unix(0, c.lastEventTime.Load())
	if last.UnixNano() == 0 {
		last = time.Time{}
	}
	return Stats{
		Connected:     c.connected.Load(),
		EventsEmitted: c.eventsEmitted.Load(),
		Reconnects:    c.reconnects.Load(),
		LastEventTime: last,
	}
}

// --- Request/response calls ---

func (c *Client) Me(ctx context.Context) (chat.User, error) {
	var u chat.User
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &u)
	return u, err
}

func (c *Client) ClientConfig(ctx context.Context) (chat.ClientConfig, error) {
	var cfg chat.ClientConfig
	err := c.do(ctx, http.MethodGet, "/config/client?format=old", nil, &cfg)
	return cfg, err
}

func (c *Client) Teams(ctx context.Context) ([]chat.Team, error) {
	var teams []chat.Team
	err := c.do(ctx, http.MethodGet, "/users/me/teams", nil, &teams)
	return teams, err
}

func (c *Client) Channels(ctx context.Context, teamID string) ([]chat.Channel, error) {
	var chans []chat.Channel
	path := "/users/me/teams/" + url.PathEscape(teamID) + "/channels"
	if err := c.do(ctx, http.MethodGet, path, nil, &chans); err != nil {
		return nil, err
	}
	for i := range chans {
		chans[i].Member = true
	}
	return chans, nil
}

func (c *Client) Posts(ctx context.Context, channelID string, limit int) ([]chat.Post, error) {
	var page struct {
		Order []string             `json:"order"`
		Posts map[string]chat.Post `json:"posts"`
	}
	path := fmt.Sprintf("/channels/%s/posts?per_page=%d", url.PathEscape(channelID), limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	// Server order is newest first; the feed wants oldest first.
	posts := make([]chat.Post, 0, len(page.Order))
	for i := len(page.Order) - 1; i >= 0; i-- {
		if p, ok := page.Posts[page.Order[i]]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (c *Client) UsersByIDs(ctx context.Context, ids []string) ([]chat.User, error) {
	var users []chat.User
	err := c.do(ctx, http.MethodPost, "/users/ids", ids, &users)
	return users, err
}

func (c *Client) StatusesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	var rows []struct {
		UserID string `json:"user_id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/status/ids", ids, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.Status
	}
	return out, nil
}

func (c *Client) CreatePost(ctx context.Context, channelID, message string, fileIDs []string) (chat.Post, error) {
	body := map[string]any{"channel_id": channelID, "message": message}
	if len(fileIDs) > 0 {
		body["file_ids"] = fileIDs
	}
	var post chat.Post
	err := c.do(ctx, http.MethodPost, "/posts", body, &post)
	return post, err
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID), nil, nil)
}

func (c *Client) JoinChannel(ctx context.Context, channelID string) error {
	body := map[string]any{"channel_id": channelID}
	return c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/members", body, nil)
}

func (c *Client) LeaveChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+url.PathEscape(channelID)+"/members/me", nil, nil)
}

func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+url.PathEscape(channelID), nil, nil)
}

func (c *Client) SetChannelTopic(ctx context.Context, channelID, topic string) error {
	body := map[string]any{"header": topic}
	return c.do(ctx, http.MethodPut, "/channels/"+url.PathEscape(channelID)+"/patch", body, nil)
}

func (c *Client) UpdateNotifyPrefs(ctx context.Context, channelID string, prefs chat.NotifyPrefs) error {
	path := "/channels/" + url.PathEscape(channelID) + "/members/me/notify_props"
	return c.do(ctx, http.MethodPut, path, prefs, nil)
}

func (c *Client) UploadFile(ctx context.Context, channelID, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("channel_id", channelID); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+"/files", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", c.apiError(resp)
	}

	var out struct {
		FileInfos []struct {
			ID string `json:"id"`
		} `json:"file_infos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.FileInfos) == 0 {
		return "", fmt.Errorf("upload returned no file info")
	}
	return out.FileInfos[0].ID, nil
}

func (c *Client) AddReaction(ctx context.Context, postID, emoji string) error {
	body := map[string]any{"post_id": postID, "emoji_name": emoji}
	return c.do(ctx, http.MethodPost, "/reactions", body, nil)
}

// --- Plumbing ---

// do issues one API call. A 429 response is retried once after the window
// the server names; the retry window, a missing window, and a dropped
// request are all surfaced as events so the dispatcher can tell the user.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, ok := retryWindow(resp)
		resp.Body.Close()
		if !ok {
			c.post(ctx, chat.Event{Type: chat.EventRateLimitSettingsMissing})
			return &APIError{StatusCode: resp.StatusCode, Message: "rate limited"}
		}
		c.post(ctx, chat.Event{Type: chat.EventRateLimited, Seconds: secs})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(secs) * time.Second):
		}

		resp, err = c.roundTrip(ctx, method, path, body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			c.post(ctx, chat.Event{Type: chat.EventRequestDropped})
			return &APIError{StatusCode: resp.StatusCode, Message: "rate limited; request dropped"}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpc.Do(req)
}

func (c *Client) apiError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

// retryWindow extracts the rate-limit retry window in seconds.
func retryWindow(resp *http.Response) (int, bool) {
	for _, h := range []string{"Retry-After", "X-Ratelimit-Reset"} {
		if v := resp.Header.Get(h); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return secs, true
			}
		}
	}
	return 0, false
}

// post delivers an event, blocking until the consumer takes it. Lifecycle
// events must never be dropped: ConnectionStatus is mutated only by them,
// so a lost one would wedge the status for good. ctx is the escape hatch
// during shutdown.
func (c *Client) post(ctx context.Context, ev chat.Event) {
	select {
	case c.events <- ev:
		c.eventsEmitted.Add(1)
		c.lastEventTime.Store(time.Now().UnixNano())
	case <-ctx.Done():
	}
}
