package notify

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
)

const footer = `<hr/><p>Best regards,<br/>The Hire Mzansi Team</p>`

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Application Confirmation</h2>
<p>Hi {{.ApplicantName}},</p>
<p>Thank you for applying for the <strong>{{.JobTitle}}</strong> position at <strong>{{.Company}}</strong>.</p>
<p>We have received your application and it has been submitted to the employer. They will review your application and contact you if they would like to move forward.</p>
<p>You can track your application status in your <a href="{{.DashboardURL}}">Hire Mzansi Dashboard</a>.</p>
` + footer))

	employerTmpl = template.Must(template.New("employer").Parse(`
<h2>New Application Received</h2>
<p>You have received a new application from <strong>{{.ApplicantName}}</strong> for the <strong>{{.JobTitle}}</strong> position.</p>
<p><a href="{{.ApplicationURL}}" style="background-color: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View Application</a></p>
<p>Log in to your <a href="{{.DashboardURL}}">Hire Mzansi Dashboard</a> to review and manage applications.</p>
` + footer))

	statusTmpl = template.Must(template.New("status").Parse(`
<h2>Application Status Update</h2>
<p>Hi {{.ApplicantName}},</p>
<p>Your application status for the <strong>{{.JobTitle}}</strong> position has been updated.</p>
<p><strong>Status: {{.StatusLabel}}</strong></p>
<p>{{.StatusMessage}}</p>
<p><a href="{{.DashboardURL}}">View Your Applications</a></p>
` + footer))
)

var statusMessages = map[models.ApplicationStatus]string{
	models.ApplicationPending:  "Your application is being reviewed.",
	models.ApplicationReviewed: "The employer has reviewed your application.",
	models.ApplicationAccepted: "Congratulations! The employer is interested in your application.",
	models.ApplicationRejected: "Thank you for your application. The employer has decided to move forward with other candidates.",
}

type templateData struct {
	ApplicantName  string
	JobTitle       string
	Company        string
	DashboardURL   string
	ApplicationURL string
	StatusLabel    string
	StatusMessage  string
}

func statusMessage(s models.ApplicationStatus) string {
	if m, ok := statusMessages[s]; ok {
		return m
	}
	return "Your application status has been updated."
}

func render(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
