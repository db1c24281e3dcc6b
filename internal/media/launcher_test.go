package media

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pders01/textodon/internal/config"
	"github.com/pders01/textodon/internal/feed"
)

type started struct {
	name string
	args []string
}

// testLauncher returns a launcher that only "finds" the given commands and
// records what it would have started.
func testLauncher(t *testing.T, goos string, installed ...string) (*Launcher, *[]started) {
	t.Helper()
	cfg := config.TestConfig()
	cfg.Media.DefaultOpener = "xdg-open"

	l := NewLauncher(cfg)
	l.goos = goos
	l.registry.goos = goos

	have := make(map[string]bool)
	for _, cmd := range installed {
		have[cmd] = true
	}
	l.lookPath = func(name string) (string, error) {
		if have[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}

	var calls []started
	l.start = func(name string, args ...string) error {
		calls = append(calls, started{name: name, args: args})
		return nil
	}
	return l, &calls
}

func TestOpenAttachment_UsesConfiguredPlayer(t *testing.T) {
	l, calls := testLauncher(t, "linux", "feh", "mpv")

	if err := l.OpenAttachment(feed.Attachment{ID: "1", Type: "image", URL: "https://files.example/cat.png"}); err != nil {
		t.Fatalf("OpenAttachment failed: %v", err)
	}
	if err := l.OpenAttachment(feed.Attachment{ID: "2", Type: "gifv", URL: "https://files.example/loop.mp4"}); err != nil {
		t.Fatalf("OpenAttachment failed: %v", err)
	}

	want := []started{
		{name: "feh", args: []string{"--scale-down", "--auto-zoom", "https://files.example/cat.png"}},
		{name: "mpv", args: []string{"--no-terminal", "--force-window=immediate", "https://files.example/loop.mp4"}},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("started %+v, want %+v", *calls, want)
	}
}

func TestOpenAttachment_FallsBackToDefaultOpener(t *testing.T) {
	l, calls := testLauncher(t, "linux")

	if err := l.OpenAttachment(feed.Attachment{ID: "1", Type: "video", URL: "https://files.example/v.mp4"}); err != nil {
		t.Fatalf("OpenAttachment failed: %v", err)
	}

	want := []started{{name: "xdg-open", args: []string{"https://files.example/v.mp4"}}}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("started %+v, want %+v", *calls, want)
	}
}

func TestOpenAttachment_UnsupportedPlatformSkipsPlayer(t *testing.T) {
	l, calls := testLauncher(t, "darwin", "feh")

	if err := l.OpenAttachment(feed.Attachment{ID: "1", Type: "image", URL: "https://files.example/a.png"}); err != nil {
		t.Fatalf("OpenAttachment failed: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0].name != "xdg-open" {
		t.Errorf("expected the default opener, got %+v", *calls)
	}
}

func TestOpenAttachment_NoURL(t *testing.T) {
	l, calls := testLauncher(t, "linux")
	if err := l.OpenAttachment(feed.Attachment{ID: "7"}); err == nil {
		t.Error("expected error for attachment without URL")
	}
	if len(*calls) != 0 {
		t.Errorf("nothing should start, got %+v", *calls)
	}
}

func TestOpenURL_Windows(t *testing.T) {
	l, calls := testLauncher(t, "windows")
	l.defaultOpener = "start"

	if err := l.OpenURL("https://universeodon.com/@ada/1"); err != nil {
		t.Fatalf("OpenURL failed: %v", err)
	}

	want := []started{{name: "rundll32", args: []string{"url.dll,FileProtocolHandler", "https://universeodon.com/@ada/1"}}}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("started %+v, want %+v", *calls, want)
	}
}

func TestOpenURL_WindowsKeepsQueryIntact(t *testing.T) {
	l, calls := testLauncher(t, "windows")
	l.defaultOpener = "start"

	if err := l.OpenURL("https://evil.example/a?x=1&calc.exe"); err != nil {
		t.Fatalf("OpenURL failed: %v", err)
	}
	for _, c := range *calls {
		if c.name == "cmd" {
			t.Fatalf("URL must not pass through cmd, got %+v", c)
		}
	}
	want := []started{{name: "rundll32", args: []string{"url.dll,FileProtocolHandler", "https://evil.example/a?x=1&calc.exe"}}}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("started %+v, want %+v", *calls, want)
	}
}

func TestOpen_RejectsUnsafeURLs(t *testing.T) {
	unsafe := []string{
		"file:///etc/passwd",
		"--help",
		"javascript:alert(1)",
		"/relative/cat.png",
		"https://files.example/a\ncalc",
	}

	for _, u := range unsafe {
		t.Run(u, func(t *testing.T) {
			l, calls := testLauncher(t, "linux", "feh")
			if err := l.OpenURL(u); err == nil {
				t.Errorf("OpenURL(%q) should fail", u)
			}
			if err := l.OpenAttachment(feed.Attachment{ID: "1", Type: "image", URL: u}); err == nil {
				t.Errorf("OpenAttachment(%q) should fail", u)
			}
			if len(*calls) != 0 {
				t.Errorf("nothing should start for %q, got %+v", u, *calls)
			}
		})
	}
}

func TestOpenURL_Empty(t *testing.T) {
	l, _ := testLauncher(t, "linux")
	if err := l.OpenURL(""); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestOpen_StartFailure(t *testing.T) {
	l, _ := testLauncher(t, "linux")
	l.start = func(string, ...string) error { return errors.New("exec format error") }

	err := l.OpenURL("https://example.social")
	if err == nil {
		t.Fatal("expected start failure to surface")
	}
}

func TestPlayerRegistry_UserOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.toml")
	user := `
[players.mpv]
platforms = ["linux"]
video = { args = ["--fs"] }
`
	if err := os.WriteFile(path, []byte(user), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewPlayerRegistry(path, filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("NewPlayerRegistry failed: %v", err)
	}
	r.goos = "linux"

	args, err := r.Args("mpv", KindVideo, "u")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(args, []string{"--fs", "u"}) {
		t.Errorf("Args = %v", args)
	}
	if _, err := r.Args("mpv", KindImage, "u"); err == nil {
		t.Error("user definition without image should not support images")
	}
	if args, _ := r.Args("custom-viewer", KindImage, "u"); !reflect.DeepEqual(args, []string{"u"}) {
		t.Errorf("undefined players get the URL alone, got %v", args)
	}
}

func TestPlayerRegistry_InvalidUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.toml")
	if err := os.WriteFile(path, []byte("[players\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewPlayerRegistry(path); err == nil {
		t.Error("expected parse error")
	}
}
