package correlation

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	ids := make(map[string]struct{}, 50)
	for range 50 {
		id := NewID()
		assert.Len(t, id, 8)
		ids[id] = struct{}{}
	}
	assert.Len(t, ids, 50)
}

func TestIDRoundtrip(t *testing.T) {
	ctx := WithID(context.Background(), "abc12345")
	id, ok := ID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc12345", id)

	_, ok = ID(WithID(context.Background(), ""))
	assert.False(t, ok)
}

func TestEnsure(t *testing.T) {
	ctx, id := Ensure(context.Background())
	assert.Len(t, id, 8)

	same, again := Ensure(ctx)
	assert.Equal(t, id, again)
	assert.Equal(t, ctx, same)
}

func TestHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil))).With("component", "test")

	logger.InfoContext(WithID(context.Background(), "run00001"), "distribution finished")
	assert.Contains(t, buf.String(), "correlation_id=run00001")
	assert.Contains(t, buf.String(), "component=test")

	buf.Reset()
	logger.InfoContext(context.Background(), "no id")
	assert.NotContains(t, buf.String(), "correlation_id")
}
