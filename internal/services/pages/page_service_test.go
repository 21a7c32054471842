package pages

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/db/dbtest"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }
func boolp(b bool) *bool    { return &b }

func TestCreateDerivesSlugAndRejectsCollisions(t *testing.T) {
	svc := NewPageService(dbtest.Open(t), zap.NewNop())
	ctx := context.Background()

	p, err := svc.Create(ctx, PageInput{Title: strp("  Career Advice "), Content: strp("<p>Tips</p>"), Order: intp(4)})
	require.NoError(t, err)
	assert.Equal(t, "Career Advice", p.Title)
	assert.Equal(t, "career-advice", p.Slug)
	assert.True(t, p.IsActive)

	_, err = svc.Create(ctx, PageInput{Title: strp("Career   Advice!")})
	assert.ErrorIs(t, err, ErrPageExists)

	_, err = svc.Create(ctx, PageInput{Title: strp("   ")})
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestListOrdersAndFiltersInactive(t *testing.T) {
	svc := NewPageService(dbtest.Open(t), zap.NewNop())
	ctx := context.Background()

	for _, in := range []PageInput{
		{Title: strp("FAQ"), Order: intp(6)},
		{Title: strp("News"), Order: intp(0)},
		{Title: strp("Hidden"), Order: intp(1), IsActive: boolp(false)},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	active, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "news", active[0].Slug)
	assert.Equal(t, "faq", active[1].Slug)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "hidden", all[1].Slug)
	assert.False(t, all[1].IsActive)

	hidden, err := svc.GetBySlug(ctx, "hidden")
	require.NoError(t, err)
	assert.Equal(t, "Hidden", hidden.Title)

	_, err = svc.GetBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestUpdateRecomputesSlug(t *testing.T) {
	svc := NewPageService(dbtest.Open(t), zap.NewNop())
	ctx := context.Background()

	nsfas, err := svc.Create(ctx, PageInput{Title: strp("NSFAS")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, PageInput{Title: strp("Bursaries")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, nsfas.ID, PageInput{Title: strp("NSFAS Funding"), Description: strp("Student funding")})
	require.NoError(t, err)
	assert.Equal(t, "nsfas-funding", updated.Slug)
	assert.Equal(t, "Student funding", updated.Description)

	_, err = svc.GetBySlug(ctx, "nsfas")
	assert.ErrorIs(t, err, ErrPageNotFound)

	// Unchanged title keeps its own slug without colliding with itself.
	_, err = svc.Update(ctx, nsfas.ID, PageInput{Order: intp(3)})
	require.NoError(t, err)

	_, err = svc.Update(ctx, nsfas.ID, PageInput{Title: strp("bursaries")})
	assert.ErrorIs(t, err, ErrPageExists)

	_, err = svc.Update(ctx, uuid.New(), PageInput{Order: intp(1)})
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestDelete(t *testing.T) {
	svc := NewPageService(dbtest.Open(t), zap.NewNop())
	ctx := context.Background()

	p, err := svc.Create(ctx, PageInput{Title: strp("Studying")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrPageNotFound)
}

func TestRejectsTitlesWithUnroutableSlugs(t *testing.T) {
	svc := NewPageService(dbtest.Open(t), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Title: strp("!!!")})
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = svc.Create(ctx, PageInput{Title: strp(" All ")})
	assert.ErrorIs(t, err, ErrTitleReserved)

	p, err := svc.Create(ctx, PageInput{Title: strp("All Bursaries")})
	require.NoError(t, err)
	assert.Equal(t, "all-bursaries", p.Slug)

	_, err = svc.Update(ctx, p.ID, PageInput{Title: strp("all")})
	assert.ErrorIs(t, err, ErrTitleReserved)
	_, err = svc.Update(ctx, p.ID, PageInput{Title: strp("???")})
	assert.ErrorIs(t, err, ErrTitleRequired)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "all-bursaries", all[0].Slug)
}
