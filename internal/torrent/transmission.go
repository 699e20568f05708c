package torrent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const sessionIDHeader = "X-Transmission-Session-Id"

// Transmission state codes for the "status" field.
const (
	tmStopped     = 0
	tmQueuedCheck = 1
	tmChecking    = 2
	tmQueuedDown  = 3
	tmDownloading = 4
	tmQueuedSeed  = 5
	tmSeeding     = 6
)

// TransmissionClient talks to a Transmission daemon over its RPC API.
type TransmissionClient struct {
	rpcURL       string
	username     string
	password     string
	metadataWait time.Duration
	pollEvery    time.Duration
	httpClient   *http.Client
	log          *slog.Logger

	// The client is shared between the poller and API handlers, so the
	// session ID refreshed on 409 responses needs the lock.
	mu        sync.Mutex
	sessionID string
}

// TransmissionOption configures a TransmissionClient.
type TransmissionOption func(*TransmissionClient)

// WithMetadataWait bounds how long Files waits for magnet metadata.
func WithMetadataWait(d time.Duration) TransmissionOption {
	return func(c *TransmissionClient) {
		c.metadataWait = d
	}
}

// WithPollInterval sets how often Files re-queries while waiting.
func WithPollInterval(d time.Duration) TransmissionOption {
	return func(c *TransmissionClient) {
		c.pollEvery = d
	}
}

// WithTransmissionHTTPClient sets a custom HTTP client.
func WithTransmissionHTTPClient(hc *http.Client) TransmissionOption {
	return func(c *TransmissionClient) {
		c.httpClient = hc
	}
}

// NewTransmissionClient creates a Transmission RPC client.
func NewTransmissionClient(rpcURL, username, password string, log *slog.Logger, opts ...TransmissionOption) *TransmissionClient {
	if log == nil {
		log = slog.Default()
	}
	c := &TransmissionClient{
		rpcURL:       strings.TrimSuffix(rpcURL, "/"),
		username:     username,
		password:     password,
		metadataWait: 60 * time.Second,
		pollEvery:    2 * time.Second,
		log:          log.With("component", "transmission"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
}

type rpcResponse struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

// call performs one RPC round trip, retrying once on a 409 to pick up a
// fresh session ID.
func (c *TransmissionClient) call(ctx context.Context, method string, args any, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		body, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
		if err != nil {
			return fmt.Errorf("marshal rpc request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create rpc request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.mu.Lock()
		sessionID := c.sessionID
		c.mu.Unlock()
		if sessionID != "" {
			req.Header.Set(sessionIDHeader, sessionID)
		}
		if c.username != "" {
			req.SetBasicAuth(c.username, c.password)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}

		if resp.StatusCode == http.StatusConflict {
			c.mu.Lock()
			c.sessionID = resp.Header.Get(sessionIDHeader)
			c.mu.Unlock()
			_ = resp.Body.Close()
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return fmt.Errorf("transmission rpc: %s", resp.Status)
		}

		var rpcResp rpcResponse
		err = json.NewDecoder(resp.Body).Decode(&rpcResp)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode rpc response: %w", err)
		}
		if rpcResp.Result != "success" {
			return fmt.Errorf("transmission rpc %s: %s", method, rpcResp.Result)
		}
		if out != nil {
			if err := json.Unmarshal(rpcResp.Arguments, out); err != nil {
				return fmt.Errorf("decode rpc arguments: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("transmission rpc %s: session handshake failed", method)
}

// Add hands a magnet link or .torrent URL to the engine.
func (c *TransmissionClient) Add(ctx context.Context, magnet string) (string, error) {
	var result struct {
		Added struct {
			HashString string `json:"hashString"`
		} `json:"torrent-added"`
		Duplicate struct {
			HashString string `json:"hashString"`
		} `json:"torrent-duplicate"`
	}

	args := map[string]any{"filename": magnet}
	if err := c.call(ctx, "torrent-add", args, &result); err != nil {
		return "", fmt.Errorf("add torrent: %w", err)
	}

	hash := result.Added.HashString
	if hash == "" {
		hash = result.Duplicate.HashString
	}
	if hash == "" {
		return "", fmt.Errorf("add torrent: engine returned no hash")
	}

	c.log.Debug("torrent added", "info_hash", hash)
	return hash, nil
}

type torrentGetResult struct {
	Torrents []struct {
		HashString   string  `json:"hashString"`
		Name         string  `json:"name"`
		Status       int     `json:"status"`
		PercentDone  float64 `json:"percentDone"`
		DownloadDir  string  `json:"downloadDir"`
		MetadataDone float64 `json:"metadataPercentComplete"`
		Files        []struct {
			Name   string `json:"name"`
			Length int64  `json:"length"`
		} `json:"files"`
	} `json:"torrents"`
}

func (c *TransmissionClient) get(ctx context.Context, infoHash string, fields []string) (*torrentGetResult, error) {
	var result torrentGetResult
	args := map[string]any{
		"ids":    []string{infoHash},
		"fields": fields,
	}
	if err := c.call(ctx, "torrent-get", args, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Files returns the torrent's file list, polling until magnet metadata is
// available or the configured wait elapses. The wait is cancellable via ctx.
func (c *TransmissionClient) Files(ctx context.Context, infoHash string) ([]File, error) {
	deadline := time.Now().Add(c.metadataWait)
	fields := []string{"hashString", "metadataPercentComplete", "files"}

	for {
		result, err := c.get(ctx, infoHash, fields)
		if err != nil {
			return nil, fmt.Errorf("get files: %w", err)
		}
		if len(result.Torrents) == 0 {
			return nil, fmt.Errorf("get files: %w", ErrNotFound)
		}

		t := result.Torrents[0]
		if t.MetadataDone >= 1.0 && len(t.Files) > 0 {
			files := make([]File, 0, len(t.Files))
			for i, f := range t.Files {
				files = append(files, File{Index: i, Path: f.Name, Size: f.Length})
			}
			return files, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrMetadataTimeout
		}

		c.log.Debug("waiting for metadata", "info_hash", infoHash, "progress", t.MetadataDone)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollEvery):
		}
	}
}

// Status returns a live snapshot of one torrent.
func (c *TransmissionClient) Status(ctx context.Context, infoHash string) (*Status, error) {
	fields := []string{"hashString", "name", "status", "percentDone", "downloadDir"}
	result, err := c.get(ctx, infoHash, fields)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if len(result.Torrents) == 0 {
		return nil, fmt.Errorf("get status: %w", ErrNotFound)
	}

	t := result.Torrents[0]
	return &Status{
		InfoHash:    t.HashString,
		Name:        t.Name,
		State:       mapState(t.Status),
		Progress:    t.PercentDone,
		DownloadDir: t.DownloadDir,
	}, nil
}

// Remove deletes a torrent from the engine.
func (c *TransmissionClient) Remove(ctx context.Context, infoHash string, deleteFiles bool) error {
	args := map[string]any{
		"ids":               []string{infoHash},
		"delete-local-data": deleteFiles,
	}
	if err := c.call(ctx, "torrent-remove", args, nil); err != nil {
		return fmt.Errorf("remove torrent: %w", err)
	}
	return nil
}

func mapState(code int) State {
	switch code {
	case tmDownloading, tmChecking:
		return StateDownloading
	case tmSeeding:
		return StateSeeding
	case tmQueuedCheck, tmQueuedDown, tmQueuedSeed:
		return StateQueued
	default:
		return StateStopped
	}
}
