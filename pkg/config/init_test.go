package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// withTempConfigHome points XDG_CONFIG_HOME at a temp directory so
// getConfigDir() resolves inside the test sandbox. Overriding HOME doesn't
// work on Windows where os.UserHomeDir() reads USERPROFILE.
func withTempConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	return tmpDir
}

func TestInitConfig_Success(t *testing.T) {
	withTempConfigHome(t)

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("reading generated config: %v", err)
	}

	// The sample is organized into one commented block per section.
	for _, section := range []string{
		"# Blobpool Configuration File",
		"logging:",
		"store:",
		"api:",
		"metrics:",
		"archive:",
		"telemetry:",
	} {
		if !strings.Contains(string(content), section) {
			t.Errorf("generated config lacks %q", section)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		t.Fatalf("generated config is not parseable YAML: %v", err)
	}
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	withTempConfigHome(t)

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("first InitConfig: %v", err)
	}

	_, err := InitConfig(false)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("second InitConfig without force: want 'already exists' error, got %v", err)
	}
}

func TestInitConfig_Force(t *testing.T) {
	withTempConfigHome(t)

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("first InitConfig: %v", err)
	}

	if _, err := InitConfig(true); err != nil {
		t.Fatalf("InitConfig over existing file with force: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat recreated config: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("recreated config is empty")
	}
}

func TestInitConfigToPath(t *testing.T) {
	t.Run("creates missing directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
		if err := InitConfigToPath(path, false); err != nil {
			t.Fatalf("InitConfigToPath: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("stat generated config: %v", err)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := InitConfigToPath(path, false); err != nil {
			t.Fatalf("first write: %v", err)
		}
		err := InitConfigToPath(path, false)
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("want 'already exists' error, got %v", err)
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := InitConfigToPath(path, false); err != nil {
			t.Fatalf("first write: %v", err)
		}
		if err := InitConfigToPath(path, true); err != nil {
			t.Fatalf("forced rewrite: %v", err)
		}
	})
}

func TestGeneratedConfigIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading generated config: %v", err)
	}

	// Spot-check values the template pins down.
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"store path", cfg.Store.Path, "/var/lib/blobpool"},
		{"index backend", cfg.Store.Index, "badger"},
		{"api port", cfg.API.Port, 8080},
		{"archive region", cfg.Archive.Region, "us-east-1"},
		{"log level", cfg.Logging.Level, "INFO"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}
