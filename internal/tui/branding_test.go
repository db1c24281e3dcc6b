package tui

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/textodon/internal/config"
)

func TestShowBanner(t *testing.T) {
	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	ShowBanner("1.0.0-test", "https://universeodon.com")

	w.Close()
	os.Stdout = old
	out := <-outC

	if !strings.Contains(out, "Mastodon public feed reader") {
		t.Errorf("Expected banner to contain the tagline, got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
	if !strings.Contains(out, "› https://universeodon.com") {
		t.Errorf("Expected banner to name the instance, got: %s", out)
	}
}

func TestBanner_DevVersionOmitted(t *testing.T) {
	out := Banner("dev", "")
	if strings.Contains(out, "dev") {
		t.Errorf("dev builds should not print a version, got: %s", out)
	}
	if strings.Contains(out, "›") {
		t.Errorf("no instance line expected, got: %s", out)
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, "▀█▀") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestGetWelcomeMessage(t *testing.T) {
	result := GetWelcomeMessage("/")

	if !strings.Contains(result, "press / to search a hashtag") {
		t.Errorf("Expected welcome message to name the search key, got: %s", result)
	}
}

func TestLogoConstants(t *testing.T) {
	if len(LogoLines) != 3 {
		t.Errorf("Expected 3 logo lines, got %d", len(LogoLines))
	}
	if len(BannerColors) != 4 {
		t.Errorf("Expected 4 banner colors, got %d", len(BannerColors))
	}
}

func TestApplyColors(t *testing.T) {
	defaults := config.TestConfig().UI.Colors
	t.Cleanup(func() { ApplyColors(defaults) })

	ApplyColors(config.UIColors{Primary: "#000001"})
	if PrimaryColor != lipgloss.Color("#000001") {
		t.Errorf("PrimaryColor = %v, want #000001", PrimaryColor)
	}
	if SecondaryColor != lipgloss.Color(defaults.Secondary) {
		t.Errorf("unset colors should be left alone, got %v", SecondaryColor)
	}
}
