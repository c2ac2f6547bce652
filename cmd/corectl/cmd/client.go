package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// defaultServer is used when neither --server nor CORECTL_SERVER is set.
const defaultServer = "http://localhost:8080"

// apiError mirrors the server's error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// apiEnvelope mirrors the server's response wrapper. Data is kept raw
// so each command can decode its own payload shape.
type apiEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

// serverURL resolves the server base URL from the --server flag, the
// CORECTL_SERVER environment variable, or the built-in default.
func serverURL() string {
	if serverAddr != "" {
		return strings.TrimRight(serverAddr, "/")
	}
	if env := os.Getenv("CORECTL_SERVER"); env != "" {
		return strings.TrimRight(env, "/")
	}
	return defaultServer
}

// tokenPath returns the path where the access token is persisted.
func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "corectl", "token"), nil
}

// loadToken resolves the access token from CORECTL_TOKEN or the token
// file written by `corectl login`.
func loadToken() (string, error) {
	if env := os.Getenv("CORECTL_TOKEN"); env != "" {
		return env, nil
	}
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("not logged in, run 'corectl login' first")
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// saveToken persists the access token with owner-only permissions.
func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// clearToken removes the persisted token. Missing file is not an error.
func clearToken() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

var httpClient = &http.Client{Timeout: 15 * time.Second}

// apiRequest performs an authenticated request against the server and
// decodes the response envelope into out (which may be nil).
func apiRequest(method, path string, body any, out any) error {
	token, err := loadToken()
	if err != nil {
		return err
	}
	return doRequest(method, path, token, body, out)
}

// doRequest is the shared request path; login uses it with an empty
// token before any token exists.
func doRequest(method, path, token string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL()+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	PrintVerbose("%s %s", method, req.URL)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", serverURL(), err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %s", resp.Status)
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if envelope.Error != nil {
		return fmt.Errorf("%s (%s)", envelope.Error.Message, envelope.Error.Code)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}

// truncate shortens s to max characters with a ".." suffix.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 2 {
		return s[:max]
	}
	return s[:max-2] + ".."
}
