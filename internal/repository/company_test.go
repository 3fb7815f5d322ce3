package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomity/research-server-go/internal/database"
	"github.com/atomity/research-server-go/internal/model"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(url)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	ctx := context.Background()
	_, err = db.DB.ExecContext(ctx, `
		TRUNCATE research_submissions, company_registry, sessions, login_tokens, researchers CASCADE
	`)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func createTestResearcher(t *testing.T, db *database.DB, email string) string {
	t.Helper()
	researcher, err := NewResearcherRepository(db.DB).FindOrCreateByEmail(context.Background(), email)
	require.NoError(t, err)
	return researcher.ID
}

func createTestReservation(t *testing.T, repo CompanyRepository, key, name, researcherID string) *model.CompanyReservation {
	t.Helper()
	company, err := repo.Create(context.Background(), model.CreateReservationParams{
		CompanyKey:            key,
		CompanyName:           name,
		CompanyNameNormalized: name,
		ReservedBy:            researcherID,
		ExpiresAt:             time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return company
}

func TestCompanyRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompanyRepository(db.DB)
	ctx := context.Background()

	researcherID := createTestResearcher(t, db, "finder@example.com")
	created := createTestReservation(t, repo, "acme-x1", "acme", researcherID)

	assert.Equal(t, "acme-x1", created.CompanyKey)
	assert.Equal(t, model.ReservationStatusReserved, created.ReservationStatus)
	require.NotNil(t, created.ReservedBy)
	assert.Equal(t, researcherID, *created.ReservedBy)

	t.Run("finds by key", func(t *testing.T) {
		found, err := repo.FindByKey(ctx, "acme-x1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "acme", found.CompanyName)
	})

	t.Run("finds by normalized name", func(t *testing.T) {
		found, err := repo.FindByNormalizedName(ctx, "acme")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "acme-x1", found.CompanyKey)
	})

	t.Run("returns nil for unknown key", func(t *testing.T) {
		found, err := repo.FindByKey(ctx, "no-such-key")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("duplicate normalized name is a unique violation", func(t *testing.T) {
		_, err := repo.Create(ctx, model.CreateReservationParams{
			CompanyKey:            "acme-y2",
			CompanyName:           "Acme Inc",
			CompanyNameNormalized: "acme",
			ReservedBy:            researcherID,
			ExpiresAt:             time.Now().Add(24 * time.Hour),
		})
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})
}

func TestCompanyRepository_Refresh(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompanyRepository(db.DB)
	ctx := context.Background()

	owner := createTestResearcher(t, db, "owner@example.com")
	other := createTestResearcher(t, db, "other@example.com")
	createTestReservation(t, repo, "beta-a1", "beta", owner)

	t.Run("owner refresh extends expiry", func(t *testing.T) {
		newExpiry := time.Now().Add(48 * time.Hour)
		ok, err := repo.Refresh(ctx, "beta-a1", owner, newExpiry)
		require.NoError(t, err)
		assert.True(t, ok)

		found, err := repo.FindByKey(ctx, "beta-a1")
		require.NoError(t, err)
		assert.WithinDuration(t, newExpiry, found.ReservationExpiresAt, time.Second)
	})

	t.Run("non-owner refresh touches nothing", func(t *testing.T) {
		ok, err := repo.Refresh(ctx, "beta-a1", other, time.Now().Add(72*time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("released row cannot be refreshed", func(t *testing.T) {
		ok, err := repo.Release(ctx, "beta-a1", owner)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Refresh(ctx, "beta-a1", owner, time.Now().Add(24*time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCompanyRepository_Reclaim(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompanyRepository(db.DB)
	ctx := context.Background()

	first := createTestResearcher(t, db, "first@example.com")
	second := createTestResearcher(t, db, "second@example.com")
	createTestReservation(t, repo, "gamma-b2", "gamma", first)

	_, err := db.DB.ExecContext(ctx, `
		UPDATE company_registry SET reservation_status = 'expired' WHERE company_key = $1
	`, "gamma-b2")
	require.NoError(t, err)

	reclaimed, err := repo.Reclaim(ctx, "gamma-b2", second, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "gamma-b2", reclaimed.CompanyKey)
	assert.Equal(t, model.ReservationStatusReserved, reclaimed.ReservationStatus)
	require.NotNil(t, reclaimed.ReservedBy)
	assert.Equal(t, second, *reclaimed.ReservedBy)
}

func TestCompanyRepository_ActiveByResearcher(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompanyRepository(db.DB)
	ctx := context.Background()

	researcherID := createTestResearcher(t, db, "active@example.com")

	active, err := repo.ActiveByResearcher(ctx, researcherID)
	require.NoError(t, err)
	assert.Nil(t, active)

	createTestReservation(t, repo, "delta-c3", "delta", researcherID)

	active, err = repo.ActiveByResearcher(ctx, researcherID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "delta-c3", active.CompanyKey)

	t.Run("expired reservation is not returned", func(t *testing.T) {
		_, err := db.DB.ExecContext(ctx, `
			UPDATE company_registry SET reservation_expires_at = NOW() - INTERVAL '1 hour'
			WHERE company_key = $1
		`, "delta-c3")
		require.NoError(t, err)

		active, err := repo.ActiveByResearcher(ctx, researcherID)
		require.NoError(t, err)
		assert.Nil(t, active)
	})
}

func TestCompanyRepository_ExpireLapsed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompanyRepository(db.DB)
	ctx := context.Background()

	researcherID := createTestResearcher(t, db, "sweep@example.com")

	for i, key := range []string{"lapsed-d4", "fresh-e5"} {
		_, err := repo.Create(ctx, model.CreateReservationParams{
			CompanyKey:            key,
			CompanyName:           key,
			CompanyNameNormalized: key,
			ReservedBy:            researcherID,
			ExpiresAt:             time.Now().Add(24 * time.Hour),
		})
		require.NoError(t, err, fmt.Sprintf("create %d", i))
	}

	_, err := db.DB.ExecContext(ctx, `
		UPDATE company_registry SET reservation_expires_at = NOW() - INTERVAL '1 minute'
		WHERE company_key = $1
	`, "lapsed-d4")
	require.NoError(t, err)

	expired, err := repo.ExpireLapsed(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "lapsed-d4", expired[0].CompanyKey)
	require.NotNil(t, expired[0].ReservedBy)
	assert.Equal(t, researcherID, *expired[0].ReservedBy)

	fresh, err := repo.FindByKey(ctx, "fresh-e5")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusReserved, fresh.ReservationStatus)
}
