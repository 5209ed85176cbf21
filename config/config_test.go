package config

import (
	"os"
	"testing"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `trendflow:
  name: "TestApp"
  version: "1.0"
server:
  addr: ":3000"
providers:
  shop_search:
    api_key: "k1"
  social:
    api_key: "k2"
  vision:
    api_key: "k3"
storage:
  s3:
    enabled: false
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERP_API_KEY", "")
	t.Setenv("TIKAPI_KEY", "")
	t.Setenv("VISION_API_KEY", "")

	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Trendflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Trendflow.Name)
	}
	if cfg.Fetch.MaxPages != 50 {
		t.Errorf("unexpected max pages default: %d", cfg.Fetch.MaxPages)
	}
	if cfg.Fetch.PageSize != 30 {
		t.Errorf("unexpected page size default: %d", cfg.Fetch.PageSize)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SERP_API_KEY", "env-key")
	t.Setenv("TIKAPI_KEY", "")
	t.Setenv("VISION_API_KEY", "")

	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Providers.ShopSearch.APIKey != "env-key" {
		t.Errorf("env override not applied: %s", cfg.Providers.ShopSearch.APIKey)
	}
}

func TestLoadConfigMissingCredentials(t *testing.T) {
	t.Setenv("SERP_API_KEY", "")
	t.Setenv("TIKAPI_KEY", "")
	t.Setenv("VISION_API_KEY", "")

	content := `trendflow:
  name: "TestApp"
  version: "1.0"
server:
  addr: ":3000"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	defer os.Remove(f.Name())

	if _, err := LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected error for missing provider credentials")
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}

func TestAppEnvironmentAliases(t *testing.T) {
	cases := []struct {
		env  string
		want string
	}{
		{"", EnvironmentDevelopment},
		{"prod", EnvironmentProduction},
		{"Production", EnvironmentProduction},
		{"stag", EnvironmentStaging},
		{"qa", "qa"},
	}
	for _, c := range cases {
		t.Setenv("APP_ENV", c.env)
		if got := AppEnvironment(); got != c.want {
			t.Errorf("AppEnvironment() with APP_ENV=%q = %q, want %q", c.env, got, c.want)
		}
	}
}

func TestIsProductionLike(t *testing.T) {
	if !IsProductionLike(EnvironmentProduction) || !IsProductionLike(EnvironmentStaging) {
		t.Fatalf("production and staging must be production-like")
	}
	if IsProductionLike(EnvironmentDevelopment) || IsProductionLike("qa") {
		t.Fatalf("development must not be production-like")
	}
}
