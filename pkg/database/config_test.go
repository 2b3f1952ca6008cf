package database_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/verbatim/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{User: "verbatim"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"name", cfg.Name, "verbatim"},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetime, "15m"},
		{"conn_timeout", cfg.ConnTimeout, "5s"},
		{"ping_attempts", cfg.PingAttempts, 5},
		{"ping_delay", cfg.PingDelayDuration(), time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_DB_PORT", "5433")
	t.Setenv("TEST_DB_USER", "envuser")
	t.Setenv("TEST_DB_PING_ATTEMPTS", "9")
	t.Setenv("TEST_DB_PING_DELAY", "250ms")
	t.Setenv("TEST_DB_TIMEOUT", "not-a-duration")

	env := &database.Env{
		Host:         "TEST_DB_HOST",
		Port:         "TEST_DB_PORT",
		User:         "TEST_DB_USER",
		PingAttempts: "TEST_DB_PING_ATTEMPTS",
		PingDelay:    "TEST_DB_PING_DELAY",
	}

	cfg := database.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Host != "db.internal" {
		t.Errorf("host: got %s", cfg.Host)
	}
	if cfg.Port != 5433 {
		t.Errorf("port: got %d", cfg.Port)
	}
	if cfg.User != "envuser" {
		t.Errorf("user: got %s", cfg.User)
	}
	if cfg.PingAttempts != 9 {
		t.Errorf("ping_attempts: got %d", cfg.PingAttempts)
	}
	if cfg.PingDelayDuration() != 250*time.Millisecond {
		t.Errorf("ping_delay: got %v", cfg.PingDelayDuration())
	}
	if cfg.ConnTimeout != "5s" {
		t.Errorf("unmapped env var should not apply, got conn_timeout %s", cfg.ConnTimeout)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"missing user", database.Config{}, "user required"},
		{"bad lifetime", database.Config{User: "u", ConnMaxLifetime: "forever"}, "conn_max_lifetime"},
		{"bad timeout", database.Config{User: "u", ConnTimeout: "soon"}, "conn_timeout"},
		{"bad ping delay", database.Config{User: "u", PingDelay: "x"}, "ping_delay"},
		{"negative attempts", database.Config{User: "u", PingAttempts: -1}, "ping_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, User: "base", PingAttempts: 5}
	base.Merge(&database.Config{Host: "prod-db", PingDelay: "2s"})

	if base.Host != "prod-db" {
		t.Errorf("host: got %s, want prod-db", base.Host)
	}
	if base.User != "base" {
		t.Errorf("user should be preserved, got %s", base.User)
	}
	if base.PingAttempts != 5 {
		t.Errorf("ping_attempts should be preserved, got %d", base.PingAttempts)
	}
	if base.PingDelay != "2s" {
		t.Errorf("ping_delay: got %s", base.PingDelay)
	}
}

func TestConnectionStrings(t *testing.T) {
	cfg := database.Config{
		Host:     "db",
		Port:     5432,
		Name:     "verbatim",
		User:     "svc",
		Password: "secret",
		SSLMode:  "require",
	}

	dsn := cfg.Dsn()
	for _, part := range []string{"host=db", "port=5432", "dbname=verbatim", "user=svc", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("dsn %q missing %q", dsn, part)
		}
	}

	want := "postgres://svc:secret@db:5432/verbatim?sslmode=require"
	if got := cfg.URL(); got != want {
		t.Errorf("url: got %s, want %s", got, want)
	}
}
