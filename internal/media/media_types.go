package media

import (
	_ "embed"
	"net/url"
	"path"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

type TypeConfig struct {
	Extensions []string `toml:"extensions"`
}

type TypesConfig struct {
	Image     TypeConfig                `toml:"image"`
	Video     TypeConfig                `toml:"video"`
	Audio     TypeConfig                `toml:"audio"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var config TypesConfig
	if err := toml.Unmarshal(mediaTypesTOML, &config); err != nil {
		return nil, err
	}
	return &TypeDetector{config: &config}, nil
}

// KindOf classifies an attachment by its server-assigned type, falling back
// to the URL's file extension. "gifv" is a looping video.
func (d *TypeDetector) KindOf(attachmentType, rawURL string) Kind {
	switch strings.ToLower(attachmentType) {
	case "image":
		return KindImage
	case "video", "gifv":
		return KindVideo
	case "audio":
		return KindAudio
	}
	return d.DetectURL(rawURL)
}

func (d *TypeDetector) DetectURL(rawURL string) Kind {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if ext == "" {
		return KindUnknown
	}

	switch {
	case hasExtension(d.config.Image.Extensions, ext):
		return KindImage
	case hasExtension(d.config.Video.Extensions, ext):
		return KindVideo
	case hasExtension(d.config.Audio.Extensions, ext):
		return KindAudio
	}
	return KindUnknown
}

func (d *TypeDetector) DefaultOpener() string {
	if platformConfig, ok := d.config.Platforms[runtime.GOOS]; ok {
		return platformConfig.DefaultOpener
	}
	if fallback, ok := d.config.Platforms["fallback"]; ok {
		return fallback.DefaultOpener
	}
	return "open"
}

func hasExtension(extensions []string, ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
