package artifacts

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/currentsee/internal/metrics"
	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
	"github.com/mmynk/currentsee/internal/storage/memory"
)

type serviceFixture struct {
	svc     *Service
	store   *memory.Store
	metrics *metrics.ArtifactMetrics
	owner   *models.Member
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	fm, _ := newTestFileManager(t, 1<<20)
	store := memory.New()
	m := metrics.NewArtifactMetrics(prometheus.NewRegistry())

	owner := &models.Member{
		Name:       "Ada",
		Username:   "ada",
		Email:      "ada@example.com",
		JoinedDate: time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateMember(context.Background(), owner))

	return &serviceFixture{svc: NewService(fm, store, m), store: store, metrics: m, owner: owner}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	data := encodePNG(t, testImage(64, 64))

	a, err := f.svc.Upload(ctx, UploadRequest{
		OwnerID:    f.owner.ID,
		Title:      "  Sunrise  ",
		FileName:   "sunrise.png",
		PriceSolar: decimal.RequireFromString("0.5"),
	}, bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "Sunrise", a.Title)
	assert.True(t, a.HasPreview)
	assert.True(t, a.PriceSolar.Equal(decimal.RequireFromString("0.5")))

	got, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.SHA256, got.SHA256)

	_, file, err := f.svc.Open(ctx, a.ID, KindDelivery)
	require.NoError(t, err)
	body, err := io.ReadAll(file)
	file.Close()
	require.NoError(t, err)
	assert.Equal(t, data, body)

	verified, err := f.svc.Verify(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, verified.ID)

	list, err := f.svc.List(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.UploadsTotal.WithLabelValues("stored", "true")))
	assert.Equal(t, float64(len(data)), testutil.ToFloat64(f.metrics.UploadBytes))
}

func TestUploadRejections(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	tests := []struct {
		name string
		req  UploadRequest
		want error
	}{
		{"missing title", UploadRequest{OwnerID: f.owner.ID, Title: " "}, ErrInvalid},
		{"long title", UploadRequest{OwnerID: f.owner.ID, Title: strings.Repeat("t", 201)}, ErrInvalid},
		{"missing owner", UploadRequest{Title: "x"}, ErrInvalid},
		{"negative price", UploadRequest{OwnerID: f.owner.ID, Title: "x", PriceSolar: decimal.NewFromInt(-1)}, ErrInvalid},
		{"unknown owner", UploadRequest{OwnerID: "ghost", Title: "x"}, ErrOwnerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Upload(ctx, tt.req, strings.NewReader("content"))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	list, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, float64(len(tests)), testutil.ToFloat64(f.metrics.UploadsTotal.WithLabelValues("rejected", "false")))
}

func TestDeleteAndDeleteByOwner(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		a, err := f.svc.Upload(ctx, UploadRequest{OwnerID: f.owner.ID, Title: title, FileName: title + ".txt"},
			strings.NewReader("artifact "+title))
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	require.NoError(t, f.svc.Delete(ctx, ids[0]))
	_, err := f.svc.Get(ctx, ids[0])
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, ids[0]), storage.ErrNotFound)

	n, err := f.svc.DeleteByOwner(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.DeleteByOwner(ctx, "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestOpenPreviewMissing(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	a, err := f.svc.Upload(ctx, UploadRequest{OwnerID: f.owner.ID, Title: "notes"}, strings.NewReader("plain text"))
	require.NoError(t, err)
	assert.Equal(t, "artifact", a.FileName)

	_, _, err = f.svc.Open(ctx, a.ID, KindPreview)
	assert.ErrorIs(t, err, ErrNoPreview)

	_, _, err = f.svc.Open(ctx, "missing", KindMaster)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
