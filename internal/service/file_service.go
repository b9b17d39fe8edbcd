package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"meetapp/internal/errors"
	"meetapp/internal/model"
	"meetapp/internal/repository"
)

// imageTypes maps accepted extensions to the content type sniffed from the upload.
var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// checkImage verifies name and leading bytes describe the same image type and
// returns a reader over the whole content.
func checkImage(name string, content io.Reader) (string, io.Reader, error) {
	ext := strings.ToLower(filepath.Ext(name))
	want, ok := imageTypes[ext]
	if !ok {
		return "", nil, fmt.Errorf("%w: unsupported image type %q", errors.ErrValidation, ext)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if got := http.DetectContentType(head); got != want {
		return "", nil, fmt.Errorf("%w: content is %s, not %s", errors.ErrValidation, got, want)
	}
	return ext, io.MultiReader(bytes.NewReader(head), content), nil
}

// FileService stores uploaded images.
type FileService interface {
	Save(ctx context.Context, name string, content io.Reader) (*model.File, error)
}

type fileService struct {
	repo    repository.FileRepository
	dir     string
	baseURL string
}

// NewFileService stores uploads under dir and serves them from baseURL + "/files/".
func NewFileService(repo repository.FileRepository, dir, baseURL string) FileService {
	return &fileService{
		repo:    repo,
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Save writes an image under a random name keeping its extension. Anything
// that is not a PNG, JPEG, GIF or WebP image is rejected.
func (s *fileService) Save(ctx context.Context, name string, content io.Reader) (*model.File, error) {
	ext, content, err := checkImage(name, content)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	stored := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		_ = os.Remove(dst.Name())
		return nil, fmt.Errorf("write upload: %w", err)
	}

	file := &model.File{
		Name: filepath.Base(name),
		Path: stored,
		URL:  s.baseURL + "/files/" + stored,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		_ = os.Remove(dst.Name())
		return nil, fmt.Errorf("create file: %w", err)
	}
	return file, nil
}
