package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPath is the route prefix the avatar directory is served under.
const PublicPath = "/uploads/avatars"

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var ErrUnsupportedType = fmt.Errorf("unsupported image type")

// AvatarStore is the avatar bucket: a directory of images keyed by user id
// plus file extension, uploaded with overwrite and served publicly.
type AvatarStore struct {
	dir     string
	baseURL string
}

// NewAvatarStore creates the backing directory if needed.
func NewAvatarStore(dir, baseURL string) (*AvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &AvatarStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the backing directory, for wiring the static file route.
func (s *AvatarStore) Dir() string {
	return s.dir
}

// Save writes the image under <user_id><ext>, replacing any previous upload
// with the same key, and returns the public URL.
func (s *AvatarStore) Save(userID uuid.UUID, filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	name := userID.String() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}

	return s.baseURL + PublicPath + "/" + name, nil
}
