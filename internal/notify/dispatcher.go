package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
)

const (
	EventApplicationReceived = "application_received"
	EventApplicationNew      = "application_new"
	EventApplicationStatus   = "application_status"

	sendTimeout = 15 * time.Second
)

// ChannelFor is the Redis channel carrying live notifications for a user.
func ChannelFor(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// Publisher is the subset of *redis.Client used to fan out live events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Event is the payload pushed to a user's notification channel.
type Event struct {
	Type          string                   `json:"type"`
	ApplicationID uuid.UUID                `json:"application_id"`
	JobID         uuid.UUID                `json:"job_id"`
	JobTitle      string                   `json:"job_title"`
	Status        models.ApplicationStatus `json:"status"`
	At            time.Time                `json:"at"`
}

// Dispatcher sends application notifications. Every method is a best-effort
// side effect: it makes one delivery attempt per channel, logs failures and
// never reports them to the caller.
type Dispatcher struct {
	Mailer      Mailer
	Publisher   Publisher
	FrontendURL string
	Logger      *zap.Logger
}

func NewDispatcher(m Mailer, p Publisher, frontendURL string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		Mailer:      m,
		Publisher:   p,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
		Logger:      logger,
	}
}

// ApplicationReceived confirms a submission to the applicant.
func (d *Dispatcher) ApplicationReceived(ctx context.Context, applicant *models.User, job *models.Job, app *models.Application) {
	if d == nil {
		return
	}
	html, err := render(confirmationTmpl, templateData{
		ApplicantName: applicant.Name,
		JobTitle:      job.Title,
		Company:       job.Company,
		DashboardURL:  d.FrontendURL + "/dashboard",
	})
	d.deliver(ctx, err, Message{
		To:      applicant.Email,
		Subject: "Application Received - " + job.Title + " at " + job.Company,
		HTML:    html,
	})
	d.publish(ctx, applicant.ID, EventApplicationReceived, job, app)
}

// EmployerNotified tells the job owner about a new application.
func (d *Dispatcher) EmployerNotified(ctx context.Context, owner, applicant *models.User, job *models.Job, app *models.Application) {
	if d == nil || owner == nil {
		return
	}
	html, err := render(employerTmpl, templateData{
		ApplicantName:  applicant.Name,
		JobTitle:       job.Title,
		DashboardURL:   d.FrontendURL + "/dashboard",
		ApplicationURL: d.FrontendURL + "/job-management",
	})
	d.deliver(ctx, err, Message{
		To:      owner.Email,
		Subject: "New Application for " + job.Title,
		HTML:    html,
	})
	d.publish(ctx, owner.ID, EventApplicationNew, job, app)
}

// StatusChanged tells the applicant their application moved to a new status.
func (d *Dispatcher) StatusChanged(ctx context.Context, applicant *models.User, job *models.Job, app *models.Application) {
	if d == nil {
		return
	}
	html, err := render(statusTmpl, templateData{
		ApplicantName: applicant.Name,
		JobTitle:      job.Title,
		StatusLabel:   strings.ToUpper(string(app.Status)),
		StatusMessage: statusMessage(app.Status),
		DashboardURL:  d.FrontendURL + "/dashboard",
	})
	d.deliver(ctx, err, Message{
		To:      applicant.Email,
		Subject: "Application Status Update - " + job.Title,
		HTML:    html,
	})
	d.publish(ctx, applicant.ID, EventApplicationStatus, job, app)
}

func (d *Dispatcher) deliver(ctx context.Context, renderErr error, msg Message) {
	log := d.Logger.With(zap.String("to", msg.To), zap.String("subject", msg.Subject))
	if renderErr != nil {
		log.Warn("email template failed", zap.Error(renderErr))
		return
	}
	if d.Mailer == nil || msg.To == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := d.Mailer.Send(ctx, msg); err != nil {
		log.Warn("email delivery failed", zap.Error(err))
		return
	}
	log.Debug("email sent")
}

func (d *Dispatcher) publish(ctx context.Context, userID uuid.UUID, typ string, job *models.Job, app *models.Application) {
	if d.Publisher == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Type:          typ,
		ApplicationID: app.ID,
		JobID:         job.ID,
		JobTitle:      job.Title,
		Status:        app.Status,
		At:            time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := d.Publisher.Publish(ctx, ChannelFor(userID), payload).Err(); err != nil {
		d.Logger.Warn("notification publish failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
