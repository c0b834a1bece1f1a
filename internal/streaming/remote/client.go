// ABOUTME: Client for a streaming-daemon sidecar API
// ABOUTME: Implements the session, engine and connect collaborators over HTTP and WebSocket
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Calliope-Cast/calliope-go/internal/streaming"
)

// Config holds the daemon address and the service credentials the daemon
// logs in with when the cast device is enabled.
type Config struct {
	Addr     string // host:port of the streaming daemon's local API
	Username string
	Password string
}

// Client talks to a streaming daemon that owns the proprietary protocol,
// auth and decode. The daemon exposes metadata over HTTP and pushes
// decoded audio plus playback events over a WebSocket.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a daemon client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Provider returns the collaborator bundle backed by this daemon.
func (c *Client) Provider() streaming.Provider {
	return streaming.Provider{
		Session: c,
		Engines: c.newEngine,
		Connect: c.openConnect,
	}
}

type trackResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

type artistResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResolveTrack implements streaming.Session.
func (c *Client) ResolveTrack(ctx context.Context, trackID string) (streaming.Track, error) {
	var resp trackResponse
	if err := c.getJSON(ctx, "/metadata/track/"+url.PathEscape(trackID), &resp); err != nil {
		return streaming.Track{}, fmt.Errorf("track lookup: %w", err)
	}
	return streaming.Track{ID: resp.ID, Name: resp.Name, Artists: resp.Artists}, nil
}

// ResolveArtist implements streaming.Session.
func (c *Client) ResolveArtist(ctx context.Context, artistID string) (streaming.Artist, error) {
	var resp artistResponse
	if err := c.getJSON(ctx, "/metadata/artist/"+url.PathEscape(artistID), &resp); err != nil {
		return streaming.Artist{}, fmt.Errorf("artist lookup: %w", err)
	}
	return streaming.Artist{ID: resp.ID, Name: resp.Name}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://%s%s", c.cfg.Addr, path), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.http.Post(fmt.Sprintf("http://%s%s", c.cfg.Addr, path),
		"application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	return nil
}
