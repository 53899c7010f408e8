package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/metrics"
	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

const maxTitleLen = 200

var (
	// ErrInvalid marks rejected upload metadata.
	ErrInvalid = errors.New("invalid artifact")

	// ErrOwnerNotFound is returned when the uploading member does not exist.
	ErrOwnerNotFound = errors.New("owner does not exist")
)

// Store is the storage the artifact service needs.
type Store interface {
	storage.ArtifactIndex
	GetMember(ctx context.Context, id string) (*models.Member, error)
}

// Service indexes artifact metadata and keeps it in step with the files on disk.
type Service struct {
	files   *FileManager
	store   Store
	metrics *metrics.ArtifactMetrics
}

// NewService creates an artifact service. m may be nil.
func NewService(files *FileManager, store Store, m *metrics.ArtifactMetrics) *Service {
	return &Service{files: files, store: store, metrics: m}
}

// UploadRequest is the metadata of an upload.
type UploadRequest struct {
	OwnerID     string
	Title       string
	FileName    string
	ContentType string
	PriceSolar  decimal.Decimal
}

// Upload validates req, stores the file copies and indexes the artifact.
func (s *Service) Upload(ctx context.Context, req UploadRequest, r io.Reader) (*models.Artifact, error) {
	a, err := s.upload(ctx, req, r)
	s.observe(a, err)
	return a, err
}

func (s *Service) upload(ctx context.Context, req UploadRequest, r io.Reader) (*models.Artifact, error) {
	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	case utf8.RuneCountInString(title) > maxTitleLen:
		return nil, fmt.Errorf("%w: title must be at most %d characters", ErrInvalid, maxTitleLen)
	case req.OwnerID == "":
		return nil, fmt.Errorf("%w: owner_id is required", ErrInvalid)
	case req.PriceSolar.IsNegative():
		return nil, fmt.Errorf("%w: price_solar must not be negative", ErrInvalid)
	}

	if _, err := s.store.GetMember(ctx, req.OwnerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to look up owner: %w", err)
	}

	a := &models.Artifact{
		OwnerID:     req.OwnerID,
		Title:       title,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		PriceSolar:  req.PriceSolar,
	}
	if err := s.files.Save(ctx, a, r); err != nil {
		return nil, err
	}

	if err := s.store.CreateArtifact(ctx, a); err != nil {
		s.files.remove(a)
		return nil, fmt.Errorf("failed to index artifact: %w", err)
	}

	slog.InfoContext(ctx, "Artifact uploaded",
		"artifact_id", a.ID,
		"owner_id", a.OwnerID,
		"size", a.Size,
		"preview", a.HasPreview,
	)
	return a, nil
}

func (s *Service) observe(a *models.Artifact, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.UploadsTotal.WithLabelValues("stored", strconv.FormatBool(a.HasPreview)).Inc()
		s.metrics.UploadBytes.Add(float64(a.Size))
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrOwnerNotFound),
		errors.Is(err, ErrTooLarge), errors.Is(err, ErrEmptyFile):
		s.metrics.UploadsTotal.WithLabelValues("rejected", "false").Inc()
	default:
		s.metrics.UploadsTotal.WithLabelValues("error", "false").Inc()
	}
}

func (s *Service) Get(ctx context.Context, id string) (*models.Artifact, error) {
	return s.store.GetArtifact(ctx, id)
}

// List returns artifacts newest first. An empty ownerID lists all.
func (s *Service) List(ctx context.Context, ownerID string) ([]*models.Artifact, error) {
	return s.store.ListArtifacts(ctx, ownerID)
}

// Open returns the artifact and an open handle on the requested copy.
func (s *Service) Open(ctx context.Context, id string, kind Kind) (*models.Artifact, *os.File, error) {
	a, err := s.store.GetArtifact(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.files.Open(a, kind)
	if err != nil {
		return nil, nil, err
	}
	return a, f, nil
}

// Delete removes the artifact's index entry and files.
func (s *Service) Delete(ctx context.Context, id string) error {
	a, err := s.store.GetArtifact(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteArtifact(ctx, id); err != nil {
		return err
	}
	if err := s.files.Delete(a); err != nil {
		// Index entry is gone; leftover files are unreachable.
		slog.WarnContext(ctx, "Artifact files not fully removed", "artifact_id", id, "error", err)
	}
	slog.InfoContext(ctx, "Artifact deleted", "artifact_id", id)
	return nil
}

// DeleteByOwner removes every artifact owned by ownerID and returns how many were removed.
func (s *Service) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	if ownerID == "" {
		return 0, fmt.Errorf("%w: owner_id is required", ErrInvalid)
	}
	owned, err := s.store.ListArtifacts(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	for i, a := range owned {
		if err := s.Delete(ctx, a.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return i, err
		}
	}
	return len(owned), nil
}

// Verify checks the stored copies of an artifact against its recorded hash
// and returns the artifact. A mismatch or missing copy yields ErrCorrupt.
func (s *Service) Verify(ctx context.Context, id string) (*models.Artifact, error) {
	a, err := s.store.GetArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.files.Verify(a); err != nil {
		return a, err
	}
	return a, nil
}
