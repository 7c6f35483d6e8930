package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
)

// PublicPrefix is the URL prefix under which stored photos are served.
const PublicPrefix = "/static/uploads/"

const sniffLen = 3072

var (
	allowedExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {},
	}
	unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// Photo is an uploaded image awaiting persistence.
type Photo struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Store persists and removes custom-order photos.
type Store interface {
	Save(ctx context.Context, photo Photo) (string, error)
	Remove(ref string) error
}

// Sink writes photos under a single directory.
type Sink struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewSink creates the directory when missing.
func NewSink(dir string, maxBytes int64, clock func() time.Time) (*Sink, error) {
	if dir == "" {
		return nil, fmt.Errorf("uploads dir is required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("upload size cap must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Sink{dir: dir, maxBytes: maxBytes, now: clock}, nil
}

// Dir is the backing directory, served read-only by the router.
func (s *Sink) Dir() string {
	return s.dir
}

// Save validates and writes the photo, returning its public reference.
func (s *Sink) Save(ctx context.Context, photo Photo) (string, error) {
	if photo.Content == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "archivo de imagen vacio")
	}
	base := sanitizeName(photo.Filename)
	ext := strings.ToLower(filepath.Ext(base))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "formato de imagen no permitido").
			WithDetails(map[string]any{"field": "foto", "allowed": "jpg, jpeg, png, gif, bmp"})
	}
	if photo.Size > s.maxBytes {
		return "", s.tooLarge()
	}

	data, err := io.ReadAll(io.LimitReader(photo.Content, s.maxBytes+1))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "no se pudo leer la imagen")
	}
	if int64(len(data)) > s.maxBytes {
		return "", s.tooLarge()
	}
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "archivo de imagen vacio")
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if mt := mimetype.Detect(head); !strings.HasPrefix(mt.String(), "image/") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "el archivo no es una imagen").
			WithDetails(map[string]any{"field": "foto", "detected": mt.String()})
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name, err := s.write(base, data)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "no se pudo guardar la imagen")
	}
	return PublicPrefix + name, nil
}

func (s *Sink) write(base string, data []byte) (string, error) {
	stamp := s.now().Unix()
	for attempt := 0; attempt < 100; attempt++ {
		name := fmt.Sprintf("%d_%s", stamp, base)
		if attempt > 0 {
			stem := strings.TrimSuffix(base, filepath.Ext(base))
			name = fmt.Sprintf("%d_%s_%d%s", stamp, stem, attempt, filepath.Ext(base))
		}
		full := filepath.Join(s.dir, name)
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, werr := io.Copy(f, bytes.NewReader(data))
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(full)
			if werr != nil {
				return "", werr
			}
			return "", cerr
		}
		return name, nil
	}
	return "", fmt.Errorf("no free file name for %s", base)
}

// Remove deletes a previously saved photo. Unknown refs are ignored.
func (s *Sink) Remove(ref string) error {
	name := path.Base(strings.TrimPrefix(ref, PublicPrefix))
	if name == "" || name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Sink) tooLarge() error {
	return pkgerrors.New(pkgerrors.CodePayloadTooLarge, "la imagen excede el tamano maximo").
		WithDetails(map[string]any{"field": "foto", "max_bytes": s.maxBytes})
}

func sanitizeName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = unsafeNameRe.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "foto"
	}
	return base
}
