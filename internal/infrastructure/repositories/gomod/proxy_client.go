package gomod

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/module"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

const (
	defaultProxy = "https://proxy.golang.org"
	proxyTimeout = 15 * time.Second
)

// ProxyClient lists module versions from a GOPROXY-protocol server.
type ProxyClient struct {
	baseURL string
	client  *http.Client
}

// NewProxyClient creates a client for the first usable entry of a GOPROXY
// value. "direct" and "off" entries are skipped.
func NewProxyClient(goproxy string) *ProxyClient {
	return NewProxyClientWithHTTP(goproxy, &http.Client{Timeout: proxyTimeout})
}

// NewProxyClientWithHTTP creates a client with a custom HTTP client.
func NewProxyClientWithHTTP(goproxy string, client *http.Client) *ProxyClient {
	baseURL := defaultProxy
	for _, entry := range strings.FieldsFunc(goproxy, func(r rune) bool { return r == ',' || r == '|' }) {
		entry = strings.TrimSpace(entry)
		if entry == "" || entry == "direct" || entry == "off" {
			continue
		}
		baseURL = entry
		break
	}
	return &ProxyClient{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// ListVersions returns the tagged versions the proxy knows for a module.
func (c *ProxyClient) ListVersions(ctx context.Context, modulePath string) ([]string, error) {
	escaped, err := module.EscapePath(modulePath)
	if err != nil {
		return nil, entities.NewUpdaterError(
			entities.ErrorTypeDependencyFileNotResolvable,
			fmt.Errorf("invalid module path %q: %w", modulePath, err),
			map[string]any{"dependency-name": modulePath},
		)
	}

	url := fmt.Sprintf("%s/%s/@v/list", c.baseURL, escaped)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("module proxy %s timed out: %w", c.baseURL, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("failed to list versions of %s: %w", modulePath, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, entities.NewUpdaterError(
			entities.ErrorTypePrivateSourceAuthenticationFailed,
			fmt.Errorf("module proxy returned %d for %s", resp.StatusCode, modulePath),
			map[string]any{"source": c.baseURL},
		)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, entities.NewUpdaterError(
			entities.ErrorTypeGitDependenciesNotReachable,
			fmt.Errorf("module %s is not available from %s", modulePath, c.baseURL),
			map[string]any{"dependency-urls": []string{modulePath}},
		)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &entities.InconsistentRegistryResponseError{
			Registry: c.baseURL,
			Err:      fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var versions []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			versions = append(versions, line)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read version list: %w", err)
	}
	return versions, nil
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
