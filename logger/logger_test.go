package logger

import (
	"os"
	"testing"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestConfigureInvalidFormat(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestWithEnv(t *testing.T) {
	os.Setenv("SERP_API_KEY", "secret")
	log := Logger()
	entry := log.WithEnv("SERP_API_KEY")
	if v, ok := entry.Entry.Data["SERP_API_KEY"]; !ok || v != "secret" {
		t.Fatalf("env field not set: %v", entry.Entry.Data)
	}
}

func TestEntryWithEnv(t *testing.T) {
	os.Setenv("S3_BUCKET", "archive-bucket")
	log := Logger()
	entry := log.WithError(os.ErrNotExist).WithEnv("S3_BUCKET")
	if v, ok := entry.Entry.Data["S3_BUCKET"]; !ok || v != "archive-bucket" {
		t.Fatalf("env field not set: %v", entry.Entry.Data)
	}
	if _, ok := entry.Entry.Data["error"]; !ok {
		t.Fatalf("error field lost after WithEnv: %v", entry.Entry.Data)
	}
}
