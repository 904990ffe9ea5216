package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
)

const (
	TemplateVolunteerReceived = "volunteer_received"
	TemplateVolunteerApproved = "volunteer_approved"
	TemplateVolunteerRejected = "volunteer_rejected"

	TemplateApplicationReceived = "application_received"
	TemplateApplicationApproved = "application_approved"
	TemplateApplicationRejected = "application_rejected"
)

// Data is the template data bag. Every value is a plain string so that it
// can round trip through the outbox table.
type Data map[string]string

type Message struct {
	Subject string
	Html    string
}

type emailTemplate struct {
	subject string
	body    *template.Template

	// Optional fields substituted with a placeholder when absent.
	fallbacks map[string]string
}

func parse(name, body string) *template.Template {
	return template.Must(template.New(name).Parse(body))
}

var templates = map[string]emailTemplate{
	TemplateVolunteerReceived: {
		subject: "We received your volunteer application",
		body: parse(TemplateVolunteerReceived,
			`<h2>Thank you, {{.Name}}!</h2>
<p>We have received your application to volunteer with us as <b>{{.VolunteerType}}</b>.
Our team will review it and be in touch soon.</p>
<p>&mdash; The PawHaven team</p>`),
	},
	TemplateVolunteerApproved: {
		subject: "Your volunteer application has been approved",
		body: parse(TemplateVolunteerApproved,
			`<h2>Welcome aboard, {{.Name}}!</h2>
<p>Your application to volunteer as <b>{{.VolunteerType}}</b> has been approved.
We will reach out shortly with next steps and scheduling.</p>
<p>&mdash; The PawHaven team</p>`),
	},
	TemplateVolunteerRejected: {
		subject: "Update on your volunteer application",
		body: parse(TemplateVolunteerRejected,
			`<h2>Hello {{.Name}},</h2>
<p>Thank you for your interest in volunteering with us. Unfortunately we are
unable to take on your application at this time. We encourage you to apply
again in the future.</p>
<p>&mdash; The PawHaven team</p>`),
	},
	TemplateApplicationReceived: {
		subject: "We received your adoption application",
		body: parse(TemplateApplicationReceived,
			`<h2>Thank you, {{.Name}}!</h2>
<p>We have received your application to adopt <b>{{.DogName}}</b>.
Our team will review it and contact you soon.</p>
<p>&mdash; The PawHaven team</p>`),
		fallbacks: map[string]string{"DogName": "your chosen dog"},
	},
	TemplateApplicationApproved: {
		subject: "Your adoption application has been approved!",
		body: parse(TemplateApplicationApproved,
			`<h2>Wonderful news, {{.Name}}!</h2>
<p>Your application to adopt <b>{{.DogName}}</b> has been approved.
We will contact you to arrange a meet and greet and the next steps of the
adoption process.</p>
<p>&mdash; The PawHaven team</p>`),
		fallbacks: map[string]string{"DogName": "your chosen dog"},
	},
	TemplateApplicationRejected: {
		subject: "Update on your adoption application",
		body: parse(TemplateApplicationRejected,
			`<h2>Hello {{.Name}},</h2>
<p>Thank you for applying to adopt <b>{{.DogName}}</b>. After careful review
we are unable to approve your application at this time. Please don't be
discouraged &mdash; there are many dogs still looking for a home.</p>
<p>&mdash; The PawHaven team</p>`),
		fallbacks: map[string]string{"DogName": "your chosen dog"},
	},
}

// Render maps a template key and data bag to a subject/html pair. Missing
// optional fields fall back to a placeholder rather than failing the send.
func Render(templateKey string, data Data) (Message, error) {
	tmpl, ok := templates[templateKey]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template '%v'", templateKey)
	}

	if data == nil {
		data = Data{}
	}
	for field, placeholder := range tmpl.fallbacks {
		if data[field] == "" {
			slog.Warn("email template field missing, using placeholder", "template", templateKey, "field", field)
			data[field] = placeholder
		}
	}

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("error rendering email template '%v': %w", templateKey, err)
	}

	return Message{Subject: tmpl.subject, Html: body.String()}, nil
}
