// Package artifacts stores marketplace files: a read-only master copy, a buyer
// download copy and an optional PNG preview per artifact.
package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

// Kind selects one of the stored copies of an artifact.
type Kind string

const (
	KindMaster   Kind = "master"
	KindDelivery Kind = "delivery"
	KindPreview  Kind = "preview"
)

const (
	tmpDir        = "tmp"
	masterPerm    = 0444
	filePerm      = 0644
	dirPerm       = 0755
	sniffLen      = 512
	defaultName   = "artifact"
	maxNameLength = 128
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("file exceeds upload limit")

	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")

	// ErrNoPreview is returned when opening the preview of an artifact without one.
	ErrNoPreview = errors.New("artifact has no preview")

	// ErrCorrupt is returned by Verify when a stored copy does not match its hash.
	ErrCorrupt = errors.New("stored file does not match recorded hash")
)

// FileManager lays out artifact files under a root directory:
//
//	master/<id>                 original bytes, read-only
//	delivery/<id>/<file name>   copy served to buyers
//	preview/<id>.png            thumbnail, images only
type FileManager struct {
	root      string
	maxUpload int64
	previews  *PreviewGenerator
}

// NewFileManager creates the directory layout under root.
func NewFileManager(root string, maxUpload int64, previews *PreviewGenerator) (*FileManager, error) {
	for _, dir := range []string{string(KindMaster), string(KindDelivery), string(KindPreview), tmpDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), dirPerm); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	return &FileManager{root: root, maxUpload: maxUpload, previews: previews}, nil
}

// MaxUpload is the largest accepted upload in bytes.
func (fm *FileManager) MaxUpload() int64 {
	return fm.maxUpload
}

// Path returns where the given copy of a is stored.
func (fm *FileManager) Path(a *models.Artifact, kind Kind) string {
	switch kind {
	case KindDelivery:
		return filepath.Join(fm.root, string(KindDelivery), a.ID, a.FileName)
	case KindPreview:
		return filepath.Join(fm.root, string(KindPreview), a.ID+".png")
	default:
		return filepath.Join(fm.root, string(KindMaster), a.ID)
	}
}

// Save streams r into the three copies of a. It assigns a.ID when empty and fills in
// FileName, Size, SHA256, HasPreview and ContentType (sniffed when empty).
// On failure nothing is left on disk.
func (fm *FileManager) Save(ctx context.Context, a *models.Artifact, r io.Reader) (err error) {
	storage.PrepareArtifact(a)
	a.FileName = SanitizeFileName(a.FileName)

	defer func() {
		if err != nil {
			fm.remove(a)
		}
	}()

	if err := fm.writeMaster(a, r); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := fm.writeDelivery(a); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.HasPreview, err = fm.writePreview(a)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Artifact files stored",
		"artifact_id", a.ID,
		"size", a.Size,
		"content_type", a.ContentType,
		"preview", a.HasPreview,
	)
	return nil
}

// writeMaster copies r to a temp file while hashing, then moves it into place read-only.
func (fm *FileManager) writeMaster(a *models.Artifact, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Join(fm.root, tmpDir), "upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	hash := sha256.New()
	sniff := &prefixWriter{limit: sniffLen}
	n, err := io.Copy(io.MultiWriter(tmp, hash, sniff), io.LimitReader(r, fm.maxUpload+1))
	if err != nil {
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if n > fm.maxUpload {
		return ErrTooLarge
	}
	if n == 0 {
		return ErrEmptyFile
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close upload: %w", err)
	}

	master := fm.Path(a, KindMaster)
	if err := os.Rename(tmp.Name(), master); err != nil {
		return fmt.Errorf("failed to store master copy: %w", err)
	}
	if err := os.Chmod(master, masterPerm); err != nil {
		return fmt.Errorf("failed to protect master copy: %w", err)
	}

	a.Size = n
	a.SHA256 = hex.EncodeToString(hash.Sum(nil))
	if a.ContentType == "" || a.ContentType == "application/octet-stream" {
		a.ContentType = http.DetectContentType(sniff.buf)
	}
	return nil
}

func (fm *FileManager) writeDelivery(a *models.Artifact) error {
	dst := fm.Path(a, KindDelivery)
	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return fmt.Errorf("failed to create delivery directory: %w", err)
	}
	if err := copyFile(fm.Path(a, KindMaster), dst); err != nil {
		return fmt.Errorf("failed to store delivery copy: %w", err)
	}
	return nil
}

// writePreview renders the thumbnail. Non-image artifacts get no preview and no error.
func (fm *FileManager) writePreview(a *models.Artifact) (bool, error) {
	if fm.previews == nil {
		return false, nil
	}

	src, err := os.Open(fm.Path(a, KindMaster))
	if err != nil {
		return false, fmt.Errorf("failed to open master copy: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Join(fm.root, tmpDir), "preview-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := fm.previews.Generate(src, tmp); err != nil {
		if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrImageTooLarge) {
			slog.Debug("No preview for artifact", "artifact_id", a.ID, "reason", err)
			return false, nil
		}
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to close preview: %w", err)
	}
	if err := os.Rename(tmp.Name(), fm.Path(a, KindPreview)); err != nil {
		return false, fmt.Errorf("failed to store preview: %w", err)
	}
	return true, nil
}

// Open opens the given copy of a for reading.
func (fm *FileManager) Open(a *models.Artifact, kind Kind) (*os.File, error) {
	if kind == KindPreview && !a.HasPreview {
		return nil, ErrNoPreview
	}
	f, err := os.Open(fm.Path(a, kind))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s copy of artifact %s: %w", kind, a.ID, err)
	}
	return f, nil
}

// Delete removes every stored copy of a.
func (fm *FileManager) Delete(a *models.Artifact) error {
	if a.ID == "" {
		return errors.New("artifact has no ID")
	}

	var errs []error
	for _, path := range []string{
		fm.Path(a, KindMaster),
		filepath.Dir(fm.Path(a, KindDelivery)),
		fm.Path(a, KindPreview),
	} {
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to delete artifact files: %w", err)
	}
	return nil
}

func (fm *FileManager) remove(a *models.Artifact) {
	if err := fm.Delete(a); err != nil {
		slog.Warn("Failed to roll back artifact files", "artifact_id", a.ID, "error", err)
	}
}

// Verify checks that the master and delivery copies still hash to a.SHA256.
func (fm *FileManager) Verify(a *models.Artifact) error {
	for _, kind := range []Kind{KindMaster, KindDelivery} {
		sum, err := hashFile(fm.Path(a, kind))
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s copy of artifact %s is missing: %w", kind, a.ID, ErrCorrupt)
		}
		if err != nil {
			return fmt.Errorf("failed to hash %s copy: %w", kind, err)
		}
		if sum != a.SHA256 {
			return fmt.Errorf("%s copy of artifact %s: %w", kind, a.ID, ErrCorrupt)
		}
	}
	return nil
}

// SanitizeFileName reduces a client-supplied name to a safe base name.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '/' || r == ':' {
			return -1
		}
		return r
	}, name)
	switch {
	case name == "" || name == "." || name == "..":
		name = defaultName
	case strings.HasPrefix(name, "."):
		name = defaultName + name
	}
	if len(name) > maxNameLength {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = truncateUTF8(strings.TrimSuffix(name, ext), maxNameLength-len(ext)) + ext
	}
	return name
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// prefixWriter keeps the first limit bytes written to it.
type prefixWriter struct {
	buf   []byte
	limit int
}

func (w *prefixWriter) Write(p []byte) (int, error) {
	if room := w.limit - len(w.buf); room > 0 {
		w.buf = append(w.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}
