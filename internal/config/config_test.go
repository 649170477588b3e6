package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.yaml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", path, err)
		}
		if cfg.Server.URL != "http://127.0.0.1:8085" {
			t.Errorf("server url = %q", cfg.Server.URL)
		}
		if cfg.UI.FollowThreshold != 2 || cfg.UI.MaxMessageLen != 160 {
			t.Errorf("ui defaults = %+v", cfg.UI)
		}
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  url: https://warp.example.com
user:
  name: nova
  color: "#7aa2f7"
ui:
  follow_threshold: 5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.URL != "https://warp.example.com" {
		t.Errorf("server url = %q", cfg.Server.URL)
	}
	if cfg.User.Name != "nova" || cfg.User.Color != "#7aa2f7" {
		t.Errorf("user = %+v", cfg.User)
	}
	if cfg.UI.FollowThreshold != 5 {
		t.Errorf("follow threshold = %d", cfg.UI.FollowThreshold)
	}
	// Keys absent from the file keep their defaults.
	if cfg.UI.MaxMessageLen != 160 {
		t.Errorf("max message len = %d", cfg.UI.MaxMessageLen)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}
