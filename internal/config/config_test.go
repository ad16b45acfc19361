package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pgen.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "5000" && os.Getenv("PORT") == "" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.FetchTimeout() <= 0 {
		t.Errorf("FetchTimeout() = %v", cfg.FetchTimeout())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
port = "7000"
fetch_concurrency = 3
max_cards = 18
allowed_origins = ["https://a.example"]

[google]
client_id = "file-client"
folder_id = "folder-1"
`)

	t.Setenv("PORT", "7100")
	t.Setenv("GOOGLE_CLIENT_SECRET", "env-secret")
	t.Setenv("PGEN_FETCH_TIMEOUT_SECONDS", "5")
	t.Setenv("PGEN_ALLOWED_ORIGINS", "https://b.example, https://c.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "7100" {
		t.Errorf("Port = %q, want env value 7100", cfg.Port)
	}
	if cfg.FetchConcurrency != 3 || cfg.MaxCards != 18 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.FetchTimeout() != 5*time.Second {
		t.Errorf("FetchTimeout() = %v, want 5s", cfg.FetchTimeout())
	}
	if cfg.Google.ClientID != "file-client" || cfg.Google.ClientSecret != "env-secret" || cfg.Google.FolderID != "folder-1" {
		t.Errorf("Google = %+v", cfg.Google)
	}
	if !cfg.UploadEnabled() {
		t.Error("UploadEnabled() = false with id and secret set")
	}
	want := []string{"https://b.example", "https://c.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "unknown key", file: "colour = \"red\"\n"},
		{name: "bad toml", file: "port = \n"},
		{name: "zero concurrency in file", file: "fetch_concurrency = 0\n"},
		{name: "non-numeric env", env: map[string]string{"PGEN_FETCH_CONCURRENCY": "lots"}},
		{name: "negative timeout env", env: map[string]string{"PGEN_FETCH_TIMEOUT_SECONDS": "-1"}},
		{name: "zero normalize env", env: map[string]string{"PGEN_NORMALIZE_CONCURRENCY": "0"}},
		{name: "bad byte cap", env: map[string]string{"PGEN_MAX_IMAGE_BYTES": "1MB"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() succeeded for a missing file")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,c")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("splitList() = %v", got)
	}
}
