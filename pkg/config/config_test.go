package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name" toml:"name"`
	Port  int    `yaml:"port" toml:"port"`
	Inner struct {
		Path string `yaml:"path" toml:"path"`
	} `yaml:"inner" toml:"inner"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadYAMLExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_ROOT", "/srv/minutes")
	p := writeFile(t, "c.yaml", "name: demo\nport: 9090\ninner:\n  path: ${SAMPLE_ROOT}/data\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "demo" || s.Port != 9090 || s.Inner.Path != "/srv/minutes/data" {
		t.Errorf("got %+v", s)
	}
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "c.toml", "name = \"demo\"\nport = 7070\n\n[inner]\npath = \"./x\"\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "demo" || s.Port != 7070 || s.Inner.Path != "./x" {
		t.Errorf("got %+v", s)
	}
}

func TestLoadRunsValidator(t *testing.T) {
	p := writeFile(t, "c.yaml", "name: demo\nport: 0\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadParseError(t *testing.T) {
	p := writeFile(t, "c.toml", "name = [unterminated\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	s := sample{Name: "defaults", Port: 8080}
	if err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), &s); err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if s.Name != "defaults" {
		t.Errorf("defaults overwritten: %+v", s)
	}

	p := writeFile(t, "c.yaml", "port: 1234\n")
	if err := LoadOrDefault(p, &s); err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if s.Port != 1234 || s.Name != "defaults" {
		t.Errorf("got %+v", s)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	def := writeFile(t, "default.yaml", "name: fallback\nport: 1\n")
	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"), def, &s); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if s.Name != "fallback" {
		t.Errorf("got %+v", s)
	}
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"), "", &s); err == nil {
		t.Error("expected error without default file")
	}
}
