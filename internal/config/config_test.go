package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHEETSDEMO_CREDENTIALS_PATH", "")
	t.Setenv("SHEETSDEMO_DATA_DIR", "")
	t.Setenv("SHEETSDEMO_OAUTH_REDIRECT_URL", "")
	t.Setenv("SHEETSDEMO_DEBUG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error returned from Load (%v)", err)
	}

	expected := Config{
		CredentialsPath:  ".local/credentials.json",
		DataDir:          ".local",
		OAuthRedirectURL: "http://127.0.0.1:8080/callback",
	}

	if !reflect.DeepEqual(*cfg, expected) {
		t.Errorf("Incorrect config\n   expected: %+v\n   got:      %+v", expected, *cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SHEETSDEMO_CREDENTIALS_PATH", "/etc/sheetsdemo/client.json")
	t.Setenv("SHEETSDEMO_DATA_DIR", "/var/lib/sheetsdemo")
	t.Setenv("SHEETSDEMO_OAUTH_REDIRECT_URL", "http://localhost:0/oauth")
	t.Setenv("SHEETSDEMO_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error returned from Load (%v)", err)
	}

	expected := Config{
		CredentialsPath:  "/etc/sheetsdemo/client.json",
		DataDir:          "/var/lib/sheetsdemo",
		OAuthRedirectURL: "http://localhost:0/oauth",
		Debug:            true,
	}

	if !reflect.DeepEqual(*cfg, expected) {
		t.Errorf("Incorrect config\n   expected: %+v\n   got:      %+v", expected, *cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		debug    string
	}{
		{"https redirect", "https://127.0.0.1:8080/callback", ""},
		{"remote redirect", "http://example.com/callback", ""},
		{"bad debug flag", "", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHEETSDEMO_OAUTH_REDIRECT_URL", tt.redirect)
			t.Setenv("SHEETSDEMO_DEBUG", tt.debug)

			if _, err := Load(); err == nil {
				t.Errorf("Expected error, got nil")
			}
		})
	}
}

func TestWriteValuesIsACopy(t *testing.T) {
	v := WriteValues()
	v[0][0] = "X"

	if WriteValues()[0][0] != "A" {
		t.Errorf("WriteValues shares its backing array")
	}
}
