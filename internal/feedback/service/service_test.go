package service

import (
	"context"
	"testing"

	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitStoresPlainText(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	f, err := svc.Submit(ctx, "u1", ` Tom & Jerry's <b>"pick"</b> `)
	require.NoError(t, err)
	assert.Equal(t, `Tom & Jerry's "pick"`, f.Content)

	list, err := svc.ForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, `Tom & Jerry's "pick"`, list[0].Content)
}

func TestSubmitMarkupOnlyRejected(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "<script>alert(1)</script>")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	list, err := svc.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
