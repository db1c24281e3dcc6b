package media

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/textodon/internal/config"
	"github.com/pders01/textodon/internal/debuglog"
	"github.com/pders01/textodon/internal/feed"
	"github.com/pders01/textodon/internal/validation"
)

// Launcher opens attachments and post links in external programs.
type Launcher struct {
	players       map[Kind][]string
	defaultOpener string
	goos          string
	registry      *PlayerRegistry
	detector      *TypeDetector

	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// NewLauncher builds a launcher from the media section of cfg. Extra player
// definition files override the embedded ones in order.
func NewLauncher(cfg *config.Config, userPlayerFiles ...string) *Launcher {
	registry, err := NewPlayerRegistry(userPlayerFiles...)
	if err != nil {
		debuglog.Warnf("player definitions unavailable: %v", err)
		registry = &PlayerRegistry{players: make(map[string]PlayerDefinition), goos: runtime.GOOS}
	}

	detector, err := NewTypeDetector()
	if err != nil {
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	defaultOpener := cfg.Media.DefaultOpener
	if defaultOpener == "" {
		defaultOpener = detector.DefaultOpener()
	}

	return &Launcher{
		players: map[Kind][]string{
			KindImage: cfg.Media.Image,
			KindVideo: cfg.Media.Video,
			KindAudio: cfg.Media.Audio,
		},
		defaultOpener: defaultOpener,
		goos:          runtime.GOOS,
		registry:      registry,
		detector:      detector,
		lookPath:      exec.LookPath,
		start:         startDetached,
	}
}

// OpenAttachment opens a media attachment with the first installed player
// for its kind.
func (l *Launcher) OpenAttachment(a feed.Attachment) error {
	if a.URL == "" {
		return fmt.Errorf("attachment %s has no URL", a.ID)
	}
	return l.open(l.detector.KindOf(a.Type, a.URL), a.URL)
}

// OpenURL hands url to the platform opener.
func (l *Launcher) OpenURL(url string) error {
	return l.open(KindUnknown, url)
}

func (l *Launcher) open(kind Kind, url string) error {
	if err := validation.ValidateLaunchURL(url); err != nil {
		debuglog.Warnf("not opening %q: %v", url, err)
		return err
	}

	if player := l.findPlayer(kind); player != "" {
		args, err := l.registry.Args(player, kind, url)
		if err == nil {
			debuglog.Debugf("opening %s with %s", url, player)
			return l.run(player, args...)
		}
		debuglog.Debugf("skipping %s: %v", player, err)
	}

	if l.defaultOpener == "" {
		return fmt.Errorf("no application found to open URL")
	}
	if l.goos == "windows" && l.defaultOpener == "start" {
		// start is a cmd builtin; hand the URL to the shell handler
		// directly so cmd never parses it.
		return l.run("rundll32", "url.dll,FileProtocolHandler", url)
	}
	return l.run(l.defaultOpener, url)
}

func (l *Launcher) run(name string, args ...string) error {
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

func (l *Launcher) findPlayer(kind Kind) string {
	for _, cmd := range l.players[kind] {
		if _, err := l.lookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}

// startDetached starts a GUI application without waiting for it to exit.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
