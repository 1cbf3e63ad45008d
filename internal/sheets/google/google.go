// Package google reads platform transaction logs through the Google
// Sheets API, authorized by the OAuth token minted with cmd/oauth-init.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"smartfinances/internal/core"
	ports "smartfinances/internal/sheets"
)

const defaultCacheTTL = 2 * time.Minute

// Config carries the OAuth client and token. Inline JSON wins over a file
// path where both are set.
type Config struct {
	ClientJSON string
	ClientFile string
	TokenJSON  string
	TokenFile  string
	CacheTTL   time.Duration
}

type Client struct {
	svc *gsheet.Service

	mu       sync.Mutex
	cache    map[string]cachedRead
	cacheTTL time.Duration
}

type cachedRead struct {
	transactions []core.PlatformTransaction
	expiresAt    time.Time
}

var _ ports.TransactionReader = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	clientJSON, err := resolveSecret(cfg.ClientJSON, cfg.ClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	if clientJSON == nil {
		return nil, errors.New("missing Google OAuth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	oauthCfg, err := oauthgoogle.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}

	tokenJSON, err := resolveSecret(cfg.TokenJSON, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	if tokenJSON == nil {
		return nil, errors.New("missing Google OAuth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE, minted by oauth-init)")
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	// The oauth2 client refreshes the access token transparently as long
	// as the stored token carries a refresh token.
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:      svc,
		cache:    map[string]cachedRead{},
		cacheTTL: cfg.CacheTTL,
	}, nil
}

// resolveSecret returns inline JSON when present, otherwise the file
// contents, otherwise nil.
func resolveSecret(inline, file string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if strings.TrimSpace(file) != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return data, nil
	}
	return nil, nil
}

// ReadTransactions returns the parsed log for one spreadsheet range.
// Results are cached briefly so a manual refresh landing right after the
// periodic one does not spend Sheets quota twice.
func (c *Client) ReadTransactions(ctx context.Context, spreadsheetID, readRange string) ([]core.PlatformTransaction, error) {
	key := spreadsheetID + "!" + readRange

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		out := append([]core.PlatformTransaction(nil), entry.transactions...)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", readRange, err)
	}

	transactions, err := ParseTransactions(resp.Values)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = cachedRead{
		transactions: transactions,
		expiresAt:    time.Now().Add(c.cacheTTL),
	}
	c.mu.Unlock()

	return append([]core.PlatformTransaction(nil), transactions...), nil
}

// Invalidate drops every cached range so the next read hits the API.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = map[string]cachedRead{}
}
