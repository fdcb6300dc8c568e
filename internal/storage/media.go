// Package storage persists uploaded media on the local filesystem. The
// HTTP layer serves the media root statically, so the relative paths
// returned here double as URL paths under /media/.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedMediaType is returned for uploads whose extension is not
// an accepted image format.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MediaStore writes uploaded files below a configured root directory.
type MediaStore struct {
	Root string
}

func NewMediaStore(root string) *MediaStore { return &MediaStore{Root: root} }

// SaveProfilePicture stores an uploaded avatar under
// profile_pictures/user_<id>/<uuid><ext> and returns that relative path.
// The stored filename is always a fresh uuid so a hostile original
// filename can never influence the path on disk.
func (s *MediaStore) SaveProfilePicture(userID uint64, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedMediaType
	}

	rel := filepath.Join("profile_pictures", fmt.Sprintf("user_%d", userID), uuid.NewString()+ext)
	dst := filepath.Join(s.Root, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		// Do not leave a truncated file behind.
		_ = os.Remove(dst)
		return "", err
	}
	// URL paths use forward slashes regardless of platform.
	return filepath.ToSlash(rel), nil
}
