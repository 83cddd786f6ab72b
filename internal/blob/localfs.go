package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFS stores generated artifacts under Root, addressed by slash separated
// relative keys such as "audio/<job id>.mp3".
type LocalFS struct {
	Root string
}

// Put writes r to key. The content lands in a temporary file first and is
// renamed into place, so readers never see a partial artifact.
func (l LocalFS) Put(key string, r io.Reader) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(l.Root, clean)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return "", err
	}
	return filepath.ToSlash(clean), nil
}

func (l LocalFS) Open(key string) (*os.File, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(l.Root, clean))
}

func (l LocalFS) Exists(key string) bool {
	clean, err := cleanKey(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(l.Root, clean))
	return err == nil
}

func cleanKey(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return clean, nil
}
