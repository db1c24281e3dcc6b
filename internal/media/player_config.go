package media

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

//go:embed players.toml
var playersTOML []byte

// PlayerDefinition defines how a media player should be invoked
type PlayerDefinition struct {
	Description string           `toml:"description"`
	Platforms   []string         `toml:"platforms"`
	Video       *MediaTypeConfig `toml:"video,omitempty"`
	Audio       *MediaTypeConfig `toml:"audio,omitempty"`
	Image       *MediaTypeConfig `toml:"image,omitempty"`
}

type MediaTypeConfig struct {
	Args []string `toml:"args,omitempty"`
}

type PlayersConfig struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

type PlayerRegistry struct {
	players map[string]PlayerDefinition
	goos    string
}

// NewPlayerRegistry loads the embedded definitions, then merges any found
// in userPaths over them. Unreadable or missing user files are skipped.
func NewPlayerRegistry(userPaths ...string) (*PlayerRegistry, error) {
	var config PlayersConfig
	if err := toml.Unmarshal(playersTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}

	registry := &PlayerRegistry{players: config.Players, goos: runtime.GOOS}
	if registry.players == nil {
		registry.players = make(map[string]PlayerDefinition)
	}

	for _, path := range userPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var userConfig PlayersConfig
		if err := toml.Unmarshal(data, &userConfig); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for name, def := range userConfig.Players {
			registry.players[name] = def
		}
	}

	return registry, nil
}

// Args returns the arguments for playing url with player. Players without a
// definition get the url alone.
func (r *PlayerRegistry) Args(player string, kind Kind, url string) ([]string, error) {
	def, ok := r.players[player]
	if !ok {
		return []string{url}, nil
	}

	supported := false
	for _, p := range def.Platforms {
		if p == r.goos {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("%s not supported on %s", player, r.goos)
	}

	var cfg *MediaTypeConfig
	switch kind {
	case KindImage:
		cfg = def.Image
	case KindVideo:
		cfg = def.Video
	case KindAudio:
		cfg = def.Audio
	}
	if cfg == nil {
		return nil, fmt.Errorf("%s doesn't support %s", player, kind)
	}

	args := append([]string(nil), cfg.Args...)
	return append(args, url), nil
}
