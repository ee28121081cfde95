package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// hubBackend stores the snapshot as a file inside a HuggingFace dataset
// repo. Reads go through the resolve endpoint, writes through the
// commit API with the file content inlined base64.
type hubBackend struct {
	repoID string
	file   string
	token  string
	base   string
	client *http.Client
}

func newHubBackend(repoID, file, token string) (*hubBackend, error) {
	if strings.TrimSpace(repoID) == "" {
		return nil, fmt.Errorf("storage: hf backend requires a repo id")
	}
	return &hubBackend{
		repoID: repoID,
		file:   file,
		token:  token,
		base:   "https://huggingface.co",
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (h *hubBackend) Name() string { return "hf" }

func (h *hubBackend) authorize(req *http.Request) {
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
}

func (h *hubBackend) Fetch(ctx context.Context) ([]byte, error) {
	u := fmt.Sprintf("%s/datasets/%s/resolve/main/%s", h.base, h.repoID, url.PathEscape(h.file))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, fs.ErrNotExist
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("resolve %s: status %s", h.file, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// commit API lines: one header operation followed by one file operation
// per uploaded file, newline-delimited JSON.
type commitHeader struct {
	Summary string `json:"summary"`
}

type commitFile struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
}

type commitOp struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (h *hubBackend) Publish(ctx context.Context, scratchPath string) error {
	data, err := os.ReadFile(scratchPath)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	ops := []commitOp{
		{Key: "header", Value: commitHeader{Summary: "Update " + h.file}},
		{Key: "file", Value: commitFile{
			Content:  base64.StdEncoding.EncodeToString(data),
			Path:     h.file,
			Encoding: "base64",
		}},
	}
	for _, op := range ops {
		if err := enc.Encode(op); err != nil {
			return err
		}
	}

	u := fmt.Sprintf("%s/api/datasets/%s/commit/main", h.base, h.repoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("commit %s: status %s: %s", h.file, resp.Status, strings.TrimSpace(string(detail)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
