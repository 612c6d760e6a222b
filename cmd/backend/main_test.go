package main

import (
	"testing"
	"time"
)

func TestGetenvDefault(t *testing.T) {
	t.Setenv("SDS_TEST_KEY", "")
	if got := getenvDefault("SDS_TEST_KEY", "fallback"); got != "fallback" {
		t.Fatalf("unset: got %q want %q", got, "fallback")
	}

	t.Setenv("SDS_TEST_KEY", "value")
	if got := getenvDefault("SDS_TEST_KEY", "fallback"); got != "value" {
		t.Fatalf("set: got %q want %q", got, "value")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("SDS_TEST_DUR", "")
	if got := envDuration("SDS_TEST_DUR", time.Minute); got != time.Minute {
		t.Fatalf("unset: got %v want %v", got, time.Minute)
	}

	t.Setenv("SDS_TEST_DUR", "30s")
	if got := envDuration("SDS_TEST_DUR", time.Minute); got != 30*time.Second {
		t.Fatalf("set: got %v want %v", got, 30*time.Second)
	}

	t.Setenv("SDS_TEST_DUR", "not-a-duration")
	if got := envDuration("SDS_TEST_DUR", time.Minute); got != time.Minute {
		t.Fatalf("invalid: got %v want %v", got, time.Minute)
	}
}
