package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"xrechnung-gateway/internal/invoice"
	"xrechnung-gateway/pkg/database"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()

	// One connection only: every new :memory: connection is a fresh database.
	db, err := database.New(database.Config{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run("../../migrations"))
	return NewRepository(db.DB, zap.NewNop())
}

func sampleSession() *Session {
	doc := invoice.NewDocument()
	doc.Header.ID = "RE-2024-042"
	return &Session{
		ID:          NewID(),
		PDFFilename: "rechnung.pdf",
		PDFPath:     "abc/upload.pdf",
		Document:    doc,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	s := sampleSession()
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)

	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "rechnung.pdf", got.PDFFilename)
	assert.Equal(t, "RE-2024-042", got.Document.Header.ID)
	assert.False(t, got.HasArtifact())
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UpdateDocument(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	s := sampleSession()
	require.NoError(t, repo.Create(ctx, s))

	doc := s.Document
	doc.Header.ID = "RE-CHANGED"
	require.NoError(t, repo.UpdateDocument(ctx, s.ID, doc))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "RE-CHANGED", got.Document.Header.ID)

	assert.ErrorIs(t, repo.UpdateDocument(ctx, "missing", doc), ErrNotFound)
}

func TestRepository_UpdateArtifact(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	s := sampleSession()
	require.NoError(t, repo.Create(ctx, s))

	require.NoError(t, repo.UpdateArtifact(ctx, s.ID, "abc/invoice.xml", "xml-xrechnung-cii", "application/xml"))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.HasArtifact())
	assert.Equal(t, "xml-xrechnung-cii", got.ArtifactFormat)
}

func TestRepository_Delete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	s := sampleSession()
	require.NoError(t, repo.Create(ctx, s))
	require.NoError(t, repo.Delete(ctx, s.ID))

	_, err := repo.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, s.ID), ErrNotFound)
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
	assert.Len(t, NewID(), 32)
}
