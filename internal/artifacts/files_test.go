package artifacts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mmynk/currentsee/internal/models"
)

func newTestFileManager(t *testing.T, maxUpload int64) (*FileManager, string) {
	t.Helper()
	root := t.TempDir()
	fm, err := NewFileManager(root, maxUpload, NewPreviewGenerator(32))
	if err != nil {
		t.Fatalf("NewFileManager failed: %v", err)
	}
	return fm, root
}

func sha(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func readAll(t *testing.T, f *os.File) []byte {
	t.Helper()
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return b
}

func TestSaveImageStoresThreeCopies(t *testing.T) {
	ctx := context.Background()
	fm, _ := newTestFileManager(t, 1<<20)
	data := encodePNG(t, testImage(100, 50))

	a := &models.Artifact{FileName: "sunrise.png"}
	if err := fm.Save(ctx, a, bytes.NewReader(data)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if a.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if a.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", a.Size, len(data))
	}
	if a.SHA256 != sha(data) {
		t.Errorf("SHA256 = %s, want %s", a.SHA256, sha(data))
	}
	if a.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", a.ContentType)
	}
	if !a.HasPreview {
		t.Error("expected a preview for a png")
	}

	info, err := os.Stat(fm.Path(a, KindMaster))
	if err != nil {
		t.Fatalf("master missing: %v", err)
	}
	if info.Mode().Perm() != masterPerm {
		t.Errorf("master mode = %v, want %v", info.Mode().Perm(), os.FileMode(masterPerm))
	}

	for _, kind := range []Kind{KindMaster, KindDelivery} {
		f, err := fm.Open(a, kind)
		if err != nil {
			t.Fatalf("Open(%s) failed: %v", kind, err)
		}
		if !bytes.Equal(readAll(t, f), data) {
			t.Errorf("%s copy differs from upload", kind)
		}
	}
	if !strings.HasSuffix(fm.Path(a, KindDelivery), filepath.Join(a.ID, "sunrise.png")) {
		t.Errorf("delivery path = %s", fm.Path(a, KindDelivery))
	}

	f, err := fm.Open(a, KindPreview)
	if err != nil {
		t.Fatalf("Open(preview) failed: %v", err)
	}
	if len(readAll(t, f)) == 0 {
		t.Error("preview is empty")
	}

	if err := fm.Verify(a); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestSaveNonImageHasNoPreview(t *testing.T) {
	fm, _ := newTestFileManager(t, 1<<20)
	a := &models.Artifact{FileName: "essay.txt"}

	if err := fm.Save(context.Background(), a, strings.NewReader("solar is the new gold")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if a.HasPreview {
		t.Error("text file should have no preview")
	}
	if !strings.HasPrefix(a.ContentType, "text/plain") {
		t.Errorf("ContentType = %q", a.ContentType)
	}
	if _, err := fm.Open(a, KindPreview); !errors.Is(err, ErrNoPreview) {
		t.Errorf("expected ErrNoPreview, got %v", err)
	}
}

func TestSaveKeepsClientContentType(t *testing.T) {
	fm, _ := newTestFileManager(t, 1<<20)
	a := &models.Artifact{FileName: "data.csv", ContentType: "text/csv"}

	if err := fm.Save(context.Background(), a, strings.NewReader("a,b\n1,2\n")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if a.ContentType != "text/csv" {
		t.Errorf("ContentType = %q, want text/csv", a.ContentType)
	}
}

func TestSaveRejectsAndRollsBack(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"too large", strings.Repeat("x", 11), ErrTooLarge},
		{"empty", "", ErrEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, root := newTestFileManager(t, 10)
			a := &models.Artifact{FileName: "big.bin"}

			err := fm.Save(context.Background(), a, strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Save() error = %v, want %v", err, tt.want)
			}

			for _, dir := range []string{"master", "delivery", "preview", "tmp"} {
				entries, err := os.ReadDir(filepath.Join(root, dir))
				if err != nil {
					t.Fatalf("ReadDir(%s): %v", dir, err)
				}
				if len(entries) != 0 {
					t.Errorf("%s not cleaned up: %d entries left", dir, len(entries))
				}
			}
		})
	}
}

func TestSaveCancelledContextRollsBack(t *testing.T) {
	fm, _ := newTestFileManager(t, 1<<20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &models.Artifact{FileName: "late.txt"}
	if err := fm.Save(ctx, a, strings.NewReader("too late")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(fm.Path(a, KindMaster)); !os.IsNotExist(err) {
		t.Errorf("master should be removed, stat err = %v", err)
	}
}

func TestDeleteAndVerify(t *testing.T) {
	fm, _ := newTestFileManager(t, 1<<20)
	a := &models.Artifact{FileName: "poem.txt"}
	if err := fm.Save(context.Background(), a, strings.NewReader("the sun pays everyone")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := os.WriteFile(fm.Path(a, KindDelivery), []byte("tampered"), 0644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if err := fm.Verify(a); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}

	if err := os.Remove(fm.Path(a, KindDelivery)); err != nil {
		t.Fatalf("remove delivery copy: %v", err)
	}
	if err := fm.Verify(a); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt for missing copy, got %v", err)
	}

	if err := fm.Delete(a); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	for _, kind := range []Kind{KindMaster, KindDelivery} {
		if _, err := os.Stat(fm.Path(a, kind)); !os.IsNotExist(err) {
			t.Errorf("%s copy still present", kind)
		}
	}

	if err := fm.Delete(&models.Artifact{}); err == nil {
		t.Error("Delete without ID should fail")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\ada\art.jpg`, "art.jpg"},
		{"", "artifact"},
		{"..", "artifact"},
		{".hidden", "artifact.hidden"},
		{"tab\tname.txt", "tabname.txt"},
		{strings.Repeat("a", 200) + ".pdf", strings.Repeat("a", 124) + ".pdf"},
		{strings.Repeat("é", 100) + ".png", strings.Repeat("é", 62) + ".png"},
		{strings.Repeat("日", 60) + ".txt", strings.Repeat("日", 41) + ".txt"},
		{"a" + strings.Repeat("日", 60) + ".txt", "a" + strings.Repeat("日", 41) + ".txt"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeFileName(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("SanitizeFileName(%q) returned invalid UTF-8", tt.in)
			}
			if len(got) > maxNameLength {
				t.Errorf("SanitizeFileName(%q) is %d bytes, limit %d", tt.in, len(got), maxNameLength)
			}
		})
	}
}
