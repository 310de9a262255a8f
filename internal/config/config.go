package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Fixed coordinates of the demo spreadsheet. These are not configurable.
const (
	SpreadsheetID   = "1XoRcqhbAkhYB8zh_k4_VTh3_V6TrJLeTz9NfW5mTY_8"
	ReadRange       = "Sheet1!A1"
	AppendRange     = "Sheet1!A:B"
	ApplicationName = "Test Project2"
)

// WriteValues returns the block appended by the write action.
func WriteValues() [][]string {
	return [][]string{
		{"A", "B"},
		{"C", "D"},
	}
}

type Config struct {
	CredentialsPath  string
	DataDir          string
	OAuthRedirectURL string
	Debug            bool
}

func Load() (*Config, error) {
	cfg := &Config{
		CredentialsPath:  strings.TrimSpace(os.Getenv("SHEETSDEMO_CREDENTIALS_PATH")),
		DataDir:          strings.TrimSpace(os.Getenv("SHEETSDEMO_DATA_DIR")),
		OAuthRedirectURL: strings.TrimSpace(os.Getenv("SHEETSDEMO_OAUTH_REDIRECT_URL")),
	}

	// Set defaults if not provided
	if cfg.CredentialsPath == "" {
		cfg.CredentialsPath = ".local/credentials.json"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = ".local"
	}
	if cfg.OAuthRedirectURL == "" {
		cfg.OAuthRedirectURL = "http://127.0.0.1:8080/callback"
	}

	if raw := strings.TrimSpace(os.Getenv("SHEETSDEMO_DEBUG")); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("SHEETSDEMO_DEBUG: %w", err)
		}
		cfg.Debug = debug
	}

	if err := validateRedirectURL(cfg.OAuthRedirectURL); err != nil {
		return nil, fmt.Errorf("SHEETSDEMO_OAUTH_REDIRECT_URL: %w", err)
	}

	return cfg, nil
}

// The consent redirect is received by a local listener, so only plain http
// loopback addresses make sense.
func validateRedirectURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" {
		return fmt.Errorf("scheme must be http, got %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("host must be a loopback address, got %q", host)
	}

	return nil
}
