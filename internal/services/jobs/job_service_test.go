package jobs

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/db/dbtest"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
)

func int64p(v int64) *int64 { return &v }

func TestListFiltersActiveJobs(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	admin := dbtest.CreateUser(t, gdb, models.RoleAdmin)

	dbtest.CreateJob(t, gdb, admin, func(j *models.Job) {
		j.Title = "Golang Developer"
		j.Location = "Cape Town"
		j.SalaryMin = int64p(40000)
	})
	dbtest.CreateJob(t, gdb, admin, func(j *models.Job) {
		j.Title = "Marketing Intern"
		j.JobType = "Internship"
		j.Category = "Marketing"
		j.SalaryMin = int64p(8000)
	})
	dbtest.CreateJob(t, gdb, admin, func(j *models.Job) {
		j.Title = "Closed Golang Role"
		j.Status = models.JobStatusClosed
	})

	ctx := context.Background()

	all, page, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 10, page.Limit)
	require.NotNil(t, all[0].PostedBy)
	assert.Equal(t, admin.Name, all[0].PostedBy.Name)
	assert.Empty(t, all[0].PostedBy.Email)

	found, _, err := svc.List(ctx, ListQuery{Search: "GOLANG"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Golang Developer", found[0].Title)

	found, _, err = svc.List(ctx, ListQuery{Location: "cape"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, _, err = svc.List(ctx, ListQuery{JobType: "Internship", Category: "Marketing"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Marketing Intern", found[0].Title)

	sorted, _, err := svc.List(ctx, ListQuery{SortBy: "salaryMin", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, "Marketing Intern", sorted[0].Title)

	// Unknown sort keys fall back to createdAt instead of reaching SQL.
	_, _, err = svc.List(ctx, ListQuery{SortBy: "title; DROP TABLE jobs"})
	assert.NoError(t, err)

	paged, page, err := svc.List(ctx, ListQuery{Page: 2, Limit: 1, SortBy: "title", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Marketing Intern", paged[0].Title)
	assert.Equal(t, 2, page.Pages)
}

func TestGetCountsViews(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	admin := dbtest.CreateUser(t, gdb, models.RoleAdmin)
	job := dbtest.CreateJob(t, gdb, admin)
	ctx := context.Background()

	_, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Views)
	require.NotNil(t, got.PostedBy)
	assert.Equal(t, admin.Email, got.PostedBy.Email)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestConcurrentGetsCountEveryView(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	job := dbtest.CreateJob(t, gdb, dbtest.CreateUser(t, gdb, models.RoleAdmin))

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Get(context.Background(), job.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var stored models.Job
	require.NoError(t, gdb.First(&stored, "id = ?", job.ID).Error)
	assert.GreaterOrEqual(t, stored.Views, int64(1))
	assert.EqualValues(t, n, stored.Views)
}

func TestCreateValidatesAndResetsServerFields(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	admin := dbtest.CreateUser(t, gdb, models.RoleAdmin)
	ctx := context.Background()

	in := models.Job{
		ID:           uuid.New(),
		Title:        "  Data Analyst  ",
		Company:      "Hire Mzansi",
		Description:  "Analyse hiring funnels and build weekly dashboards for the recruitment team.",
		Location:     "Durban",
		JobType:      "Contract",
		Category:     "Finance",
		ContactEmail: "Jobs@Example.com",
		Views:        99,
		PostedByID:   uuid.New(),
	}
	job, err := svc.Create(ctx, admin, in)
	require.NoError(t, err)
	assert.NotEqual(t, in.ID, job.ID)
	assert.Equal(t, admin.ID, job.PostedByID)
	assert.Zero(t, job.Views)
	assert.Equal(t, "Data Analyst", job.Title)
	assert.Equal(t, "jobs@example.com", job.ContactEmail)
	assert.Equal(t, models.JobStatusActive, job.Status)
	assert.Equal(t, "Mid", job.ExperienceLevel)
	assert.False(t, job.ExpiresAt.IsZero())

	_, err = svc.Create(ctx, admin, models.Job{Title: "X", JobType: "Gig"})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "title")
	assert.Contains(t, ae.Fields, "jobType")
	assert.Contains(t, ae.Fields, "description")
}

func TestUpdateMergesPartialDocument(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	employer := dbtest.CreateUser(t, gdb, models.RoleEmployer)
	job := dbtest.CreateJob(t, gdb, employer)
	ctx := context.Background()

	hijacker := uuid.New()
	updated, err := svc.Update(ctx, employer, job.ID, []byte(`{
		"title": "Senior Data Processer",
		"salaryMax": 55000,
		"skills": ["sql", "excel"],
		"status": "closed",
		"id": "`+uuid.NewString()+`",
		"postedById": "`+hijacker.String()+`"
	}`))
	require.NoError(t, err)
	assert.Equal(t, job.ID, updated.ID)
	assert.Equal(t, employer.ID, updated.PostedByID)
	assert.Equal(t, "Senior Data Processer", updated.Title)
	assert.Equal(t, job.Description, updated.Description)
	require.NotNil(t, updated.SalaryMax)
	assert.EqualValues(t, 55000, *updated.SalaryMax)
	assert.Equal(t, []string{"sql", "excel"}, []string(updated.Skills))
	assert.Equal(t, models.JobStatusClosed, updated.Status)

	var stored models.Job
	require.NoError(t, gdb.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, "Senior Data Processer", stored.Title)
	assert.Equal(t, employer.ID, stored.PostedByID)
}

func TestUpdateRejectsInvalidDocuments(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	owner := dbtest.CreateUser(t, gdb, models.RoleEmployer)
	job := dbtest.CreateJob(t, gdb, owner)
	ctx := context.Background()

	cases := map[string]string{
		"salaryMin": `{"salaryMin": -5}`,
		"jobType":   `{"jobType": "Gig"}`,
		"skills":    `{"skills": "sql"}`,
		"title":     `{"title": "ab"}`,
	}
	for field, body := range cases {
		_, err := svc.Update(ctx, owner, job.ID, []byte(body))
		var ae *apperr.Error
		require.ErrorAs(t, err, &ae, field)
		assert.Equal(t, apperr.KindValidation, ae.Kind, field)
		assert.Contains(t, ae.Fields, field)
	}

	_, err := svc.Update(ctx, owner, job.ID, []byte(`[1,2]`))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateAndDeleteRequireOwnerOrAdmin(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	owner := dbtest.CreateUser(t, gdb, models.RoleEmployer)
	other := dbtest.CreateUser(t, gdb, models.RoleEmployer)
	admin := dbtest.CreateUser(t, gdb, models.RoleAdmin)
	job := dbtest.CreateJob(t, gdb, owner)
	ctx := context.Background()

	_, err := svc.Update(ctx, other, job.ID, []byte(`{"title":"Taken over"}`))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.Delete(ctx, other, job.ID)))

	_, err = svc.Update(ctx, admin, job.ID, []byte(`{"title":"Edited by admin"}`))
	assert.NoError(t, err)

	seeker := dbtest.CreateUser(t, gdb, models.RoleJobSeeker)
	require.NoError(t, svc.Save(ctx, seeker, job.ID))

	require.NoError(t, svc.Delete(ctx, admin, job.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, job.ID), ErrJobNotFound)

	saved, err := svc.Saved(ctx, seeker.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestLegacyApply(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	job := dbtest.CreateJob(t, gdb, dbtest.CreateUser(t, gdb, models.RoleAdmin))
	seeker := dbtest.CreateUser(t, gdb, models.RoleJobSeeker)
	ctx := context.Background()

	got, err := svc.LegacyApply(ctx, seeker, job.ID, "Keen to join", "")
	require.NoError(t, err)
	require.Len(t, got.Applications, 1)
	assert.Equal(t, seeker.ID, got.Applications[0].User)

	_, err = svc.LegacyApply(ctx, seeker, job.ID, "Again", "")
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	var stored models.Job
	require.NoError(t, gdb.First(&stored, "id = ?", job.ID).Error)
	assert.Len(t, stored.Applications, 1)
}

func TestSaveAndMyPosted(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	employer := dbtest.CreateUser(t, gdb, models.RoleEmployer)
	seeker := dbtest.CreateUser(t, gdb, models.RoleJobSeeker)
	job := dbtest.CreateJob(t, gdb, employer)
	dbtest.CreateJob(t, gdb, employer, func(j *models.Job) { j.Status = models.JobStatusDraft })
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, seeker, job.ID))
	assert.ErrorIs(t, svc.Save(ctx, seeker, job.ID), ErrAlreadySaved)
	assert.ErrorIs(t, svc.Save(ctx, seeker, uuid.New()), ErrJobNotFound)

	saved, err := svc.Saved(ctx, seeker.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, job.ID, saved[0].ID)

	posted, err := svc.MyPosted(ctx, employer)
	require.NoError(t, err)
	assert.Len(t, posted, 2)
}

func TestCategoriesSkipsClosedJobs(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewJobService(gdb, zap.NewNop())
	admin := dbtest.CreateUser(t, gdb, models.RoleAdmin)

	dbtest.CreateJob(t, gdb, admin)
	dbtest.CreateJob(t, gdb, admin)
	dbtest.CreateJob(t, gdb, admin, func(j *models.Job) { j.Category = "Marketing" })
	dbtest.CreateJob(t, gdb, admin, func(j *models.Job) {
		j.Category = "Finance"
		j.Status = models.JobStatusClosed
	})

	got, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Marketing", "Technology"}, got)
}
