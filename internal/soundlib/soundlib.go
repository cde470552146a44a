// Package soundlib lists and resolves sounds used by timers.
package soundlib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/mindful/internal/model"
)

// ErrSoundNotFound is returned when a system sound name has no file.
var ErrSoundNotFound = errors.New("sound not found")

// Sound is one playable file in the sounds directory.
type Sound struct {
	Name string
	Path string
}

// Library resolves sound URIs against a directory of system sounds.
type Library struct {
	Dir string
}

// New returns a library rooted at dir.
func New(dir string) Library {
	return Library{Dir: dir}
}

// List returns the audio files in the library, sorted by name. A missing
// directory yields an empty list.
func (l Library) List() ([]Sound, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sounds dir: %w", err)
	}
	var sounds []Sound
	for _, e := range entries {
		if e.IsDir() || !IsAudioFile(e.Name()) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		sounds = append(sounds, Sound{Name: name, Path: filepath.Join(l.Dir, e.Name())})
	}
	sort.Slice(sounds, func(i, j int) bool { return sounds[i].Name < sounds[j].Name })
	return sounds, nil
}

// Resolve maps a stored sound URI to a file path. System sounds are looked
// up by name, with or without extension; user files are used as given.
func (l Library) Resolve(uri string, origin model.SoundOrigin) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", fmt.Errorf("sound uri is empty")
	}
	if origin == model.OriginUserFile {
		return expandHome(strings.TrimPrefix(uri, "file://")), nil
	}
	if filepath.IsAbs(uri) {
		return uri, nil
	}
	candidate := filepath.Join(l.Dir, uri)
	if _, err := os.Stat(candidate); err == nil && filepath.Ext(uri) != "" {
		return candidate, nil
	}
	sounds, err := l.List()
	if err != nil {
		return "", err
	}
	for _, s := range sounds {
		if s.Name == uri {
			return s.Path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSoundNotFound, uri)
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".aiff": true,
	".opus": true,
}

// IsAudioFile reports whether name has a known audio extension.
func IsAudioFile(name string) bool {
	return audioExts[strings.ToLower(filepath.Ext(name))]
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
