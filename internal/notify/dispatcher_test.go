package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/notify"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/notify/notifytest"
)

type fakePublisher struct {
	channels []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.channels = append(p.channels, channel)
	if b, ok := message.([]byte); ok {
		p.payloads = append(p.payloads, b)
	}
	cmd := redis.NewIntCmd(ctx)
	if p.err != nil {
		cmd.SetErr(p.err)
	}
	return cmd
}

func fixtures() (*models.User, *models.User, *models.Job, *models.Application) {
	applicant := &models.User{ID: uuid.New(), Name: "Thandi", Email: "thandi@example.com"}
	owner := &models.User{ID: uuid.New(), Name: "Admin", Email: "admin@example.com"}
	job := &models.Job{ID: uuid.New(), Title: "Junior Data Processer", Company: "etiMAX"}
	app := &models.Application{ID: uuid.New(), JobID: job.ID, UserID: applicant.ID, Status: models.ApplicationPending}
	return applicant, owner, job, app
}

func TestDispatcherSendsTemplatedMail(t *testing.T) {
	rec := &notifytest.Recorder{}
	d := notify.NewDispatcher(rec, nil, "https://jobs.example.com/", zap.NewNop())
	applicant, owner, job, app := fixtures()

	d.ApplicationReceived(context.Background(), applicant, job, app)
	d.EmployerNotified(context.Background(), owner, applicant, job, app)

	app.Status = models.ApplicationAccepted
	d.StatusChanged(context.Background(), applicant, job, app)

	toApplicant := rec.To(applicant.Email)
	require.Len(t, toApplicant, 2)
	assert.Equal(t, "Application Received - Junior Data Processer at etiMAX", toApplicant[0].Subject)
	assert.Contains(t, toApplicant[0].HTML, "https://jobs.example.com/dashboard")
	assert.Equal(t, "Application Status Update - Junior Data Processer", toApplicant[1].Subject)
	assert.Contains(t, toApplicant[1].HTML, "Status: ACCEPTED")
	assert.Contains(t, toApplicant[1].HTML, "Congratulations!")

	toOwner := rec.To(owner.Email)
	require.Len(t, toOwner, 1)
	assert.Equal(t, "New Application for Junior Data Processer", toOwner[0].Subject)
	assert.Contains(t, toOwner[0].HTML, "https://jobs.example.com/job-management")
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	rec := &notifytest.Recorder{Err: errors.New("smtp down")}
	pub := &fakePublisher{err: errors.New("redis down")}
	d := notify.NewDispatcher(rec, pub, "http://localhost:5173", zap.NewNop())
	applicant, _, job, app := fixtures()

	assert.NotPanics(t, func() {
		d.ApplicationReceived(context.Background(), applicant, job, app)
	})
	assert.Len(t, rec.Messages(), 1)
	assert.Len(t, pub.channels, 1)
}

func TestDispatcherPublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	d := notify.NewDispatcher(&notifytest.Recorder{}, pub, "", zap.NewNop())
	applicant, _, job, app := fixtures()

	d.StatusChanged(context.Background(), applicant, job, app)

	require.Equal(t, []string{notify.ChannelFor(applicant.ID)}, pub.channels)
	var ev notify.Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &ev))
	assert.Equal(t, notify.EventApplicationStatus, ev.Type)
	assert.Equal(t, app.ID, ev.ApplicationID)
	assert.Equal(t, job.Title, ev.JobTitle)
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *notify.Dispatcher
	applicant, owner, job, app := fixtures()
	assert.NotPanics(t, func() {
		d.ApplicationReceived(context.Background(), applicant, job, app)
		d.EmployerNotified(context.Background(), owner, applicant, job, app)
		d.StatusChanged(context.Background(), applicant, job, app)
	})
}
