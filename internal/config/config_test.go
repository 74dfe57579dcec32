package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.TestURL != "http://ip-api.com/json/" {
		t.Fatalf("bad default test_url: %q", s.TestURL)
	}
	if s.DefaultTimeoutSec != 10 || s.DefaultMaxConcurrent != 10 {
		t.Fatalf("bad defaults: %+v", s)
	}
	if s.MaxBatchSize != 100 || s.MaxConcurrentCap != 50 {
		t.Fatalf("bad caps: %+v", s)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "listen_addr: 127.0.0.1:9000\ndefault_timeout: 5\nverbose: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.ListenAddr != "127.0.0.1:9000" || s.DefaultTimeoutSec != 5 || !s.Verbose {
		t.Fatalf("yaml not applied: %+v", s)
	}
	// Untouched keys keep defaults.
	if s.TestURL != "http://ip-api.com/json/" {
		t.Fatalf("default lost: %q", s.TestURL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("test_url: http://file.example/json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROXYCHECK_TEST_URL", "http://env.example/json")
	t.Setenv("PROXYCHECK_DEFAULT_TIMEOUT", "20")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.TestURL != "http://env.example/json" {
		t.Fatalf("env should win over file: %q", s.TestURL)
	}
	if s.DefaultTimeoutSec != 20 {
		t.Fatalf("env int not applied: %d", s.DefaultTimeoutSec)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("PROXYCHECK_DEFAULT_TIMEOUT", "500")
	if _, err := Load(""); err == nil {
		t.Fatal("timeout outside bounds must be rejected")
	}
}
