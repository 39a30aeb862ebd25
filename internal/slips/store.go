package slips

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Errors returned by the slip store.
var (
	ErrEmptySlip    = errors.New("slip image is empty")
	ErrSlipNotFound = errors.New("slip file not found")
	ErrBadFilename  = errors.New("invalid slip filename")
)

// allowedExts are the upload extensions kept as-is. Anything else,
// including a missing extension, is stored as .jpg.
var allowedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

const defaultExt = ".jpg"

// Store keeps uploaded payment-slip images as individual files in one
// directory, each under a generated collision-free name.
type Store struct {
	dir string
}

// NewStore creates the slip directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slips dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the uploaded image under a new unique name and returns
// that name. originalName is only consulted for its extension.
func (s *Store) Save(originalName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptySlip
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExts[ext] {
		ext = defaultExt
	}

	u := uuid.New()
	name := "slip_" + hex.EncodeToString(u[:]) + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write slip: %w", err)
	}
	return name, nil
}

// Open returns the stored image bytes for a previously saved slip.
func (s *Store) Open(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSlipNotFound
		}
		return nil, fmt.Errorf("read slip: %w", err)
	}
	return data, nil
}

// Remove deletes a stored slip. Used to undo the image write when a
// later step of order confirmation fails.
func (s *Store) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove slip: %w", err)
	}
	return nil
}

// validName rejects anything that is not a bare generated filename, so
// a requested name can never escape the slip directory.
func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return ErrBadFilename
	}
	return nil
}
