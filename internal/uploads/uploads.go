// Package uploads stores application attachments (CVs, portfolios) on local
// disk and hands back the public URL to put in an application's attachement.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
)

const MaxSize = 10 << 20

// Prefix is the URL path the stored files are served under.
const Prefix = "/uploads/"

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".rtf":  true,
	".odt":  true,
}

type Upload struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type DiskStore struct {
	Dir     string
	BaseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save writes r under a random name that keeps the original extension. The
// returned Name is the client's original file name.
func (s *DiskStore) Save(filename string, r io.Reader) (*Upload, error) {
	name := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, apperrors.InvalidFields("invalid file type", map[string]string{
			"file": "supported types: pdf, doc, docx, txt, rtf, odt",
		})
	}

	stored := uuid.NewString() + ext
	path := filepath.Join(s.Dir, stored)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, apperrors.Internal("storing upload", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, apperrors.Internal("storing upload", err)
	}
	if n > MaxSize {
		os.Remove(path)
		return nil, apperrors.InvalidFields("file too large", map[string]string{"file": "must be at most 10MB"})
	}

	return &Upload{URL: s.BaseURL + Prefix + stored, Name: name}, nil
}
