package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/initBasti/plenty-cli/internal/config"
)

func TestConfigShow_JSON(t *testing.T) {
	resetKeyring(t)
	env := setupTestEnvWithHandler(t, newRouteHandler())
	path := env.writeSettings("token_store:\n  backend: none\nmax_pages: 7\n")

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"config", "show", "-o", "json", "--page-size", "100", "--time-zone", "UTC"})
		if err != nil {
			t.Fatalf("config show failed: %v", err)
		}
	})

	result := decodeObject(t, output)
	if result["settings_file"] != path {
		t.Errorf("settings_file = %v, want %s", result["settings_file"], path)
	}
	if result["max_pages"] != float64(7) || result["page_size"] != float64(100) {
		t.Errorf("max_pages/page_size = %v/%v", result["max_pages"], result["page_size"])
	}
	if result["timezone"] != "UTC" || result["token_store"] != "none" {
		t.Errorf("result = %v", result)
	}
}

func TestConfigPath(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler())
	custom := filepath.Join(env.dir, "other.yaml")
	if err := os.WriteFile(custom, []byte("token_store:\n  backend: none\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"config", "path"}); err != nil {
			t.Fatalf("config path failed: %v", err)
		}
	})
	if strings.TrimSpace(output) != filepath.Join(env.dir, "config.yaml") {
		t.Errorf("output = %q", output)
	}

	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"config", "path", "--config", custom}); err != nil {
			t.Fatalf("config path failed: %v", err)
		}
	})
	if strings.TrimSpace(output) != custom {
		t.Errorf("--config output = %q", output)
	}
}

func TestProfilesList_Empty(t *testing.T) {
	resetKeyring(t)
	setupTestEnvWithHandler(t, newRouteHandler())

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"config", "profiles", "list"}); err != nil {
			t.Fatalf("profiles list failed: %v", err)
		}
	})
	if !strings.Contains(output, "No profiles saved.") {
		t.Errorf("output = %q", output)
	}
}

func TestProfiles_Lifecycle(t *testing.T) {
	resetKeyring(t)
	env := setupTestEnvWithHandler(t, newRouteHandler())
	clearAccountEnv(t)

	for _, name := range []string{"default", "staging"} {
		if err := config.SaveProfile(name, config.Account{BaseURL: env.server.URL, Username: "rest-" + name, Password: "pw"}); err != nil {
			t.Fatal(err)
		}
	}

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"config", "profiles", "use", "staging"}); err != nil {
			t.Fatalf("profiles use failed: %v", err)
		}
	})
	if !strings.Contains(output, "Switched to profile staging.") {
		t.Errorf("use output = %q", output)
	}

	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"config", "profiles", "list"}); err != nil {
			t.Fatalf("profiles list failed: %v", err)
		}
	})
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("list output = %q", output)
	}
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if strings.Contains(line, "staging") && fields[0] != "*" {
			t.Errorf("current profile not marked: %q", line)
		}
		if strings.Contains(line, "rest-default") && fields[0] == "*" {
			t.Errorf("default must not be marked: %q", line)
		}
	}

	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"config", "profiles", "show", "-o", "json"}); err != nil {
			t.Fatalf("profiles show failed: %v", err)
		}
	})
	shown := decodeObject(t, output)
	if shown["profile"] != "staging" || shown["username"] != "rest-staging" || shown["password_source"] != "keychain" {
		t.Errorf("show = %v", shown)
	}
	if strings.Contains(output, `"pw"`) {
		t.Error("show must never print the password")
	}

	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"config", "profiles", "delete", "default", "--yes"}); err != nil {
			t.Fatalf("profiles delete failed: %v", err)
		}
	})
	if !strings.Contains(output, "Deleted profile default.") {
		t.Errorf("delete output = %q", output)
	}
	if _, err := config.LoadProfile("default"); !errors.Is(err, config.ErrNotConfigured) {
		t.Errorf("profile still present: %v", err)
	}
}

func TestProfilesUse_Unknown(t *testing.T) {
	resetKeyring(t)
	setupTestEnvWithHandler(t, newRouteHandler())

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"config", "profiles", "use", "nope"})
	})
	if err == nil || !strings.Contains(err.Error(), `profile "nope"`) {
		t.Errorf("err = %v", err)
	}
	if current, _ := config.CurrentProfile(); current == "nope" {
		t.Error("unknown profile must not become current")
	}
}

func TestProfilesDelete_NeedsConfirmation(t *testing.T) {
	resetKeyring(t)
	env := setupTestEnvWithHandler(t, newRouteHandler())
	if err := config.SaveProfile("default", config.Account{BaseURL: env.server.URL, Username: "rest", Password: "pw"}); err != nil {
		t.Fatal(err)
	}

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"config", "profiles", "delete", "default", "--no-input"})
	})
	if err == nil || !strings.Contains(err.Error(), "confirmation required") {
		t.Errorf("err = %v", err)
	}
	if _, lerr := config.LoadProfile("default"); lerr != nil {
		t.Errorf("profile removed without confirmation: %v", lerr)
	}
}
