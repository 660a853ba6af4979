package notification

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"sort"
	texttemplate "text/template"
	"time"
)

// VerificationEmail is the invitation sent after an admin issues a verification.
type VerificationEmail struct {
	To             string
	Name           string
	VerifyURL      string
	InvitationCode string
	ExpiresAt      time.Time
}

// WelcomeEmail is sent once a verification has been redeemed.
type WelcomeEmail struct {
	To               string
	Name             string
	MembershipNumber string
}

// AdminNotification tells the operator inbox about a new submission.
type AdminNotification struct {
	Subject string
	Fields  map[string]string
}

// Dispatcher renders workflow emails and hands them to a Sender. Errors are
// returned to the caller, which decides whether they matter.
type Dispatcher struct {
	sender Sender
	inbox  string
}

// NewDispatcher creates a dispatcher. inbox receives admin notifications; an
// empty inbox disables them.
func NewDispatcher(sender Sender, inbox string) *Dispatcher {
	return &Dispatcher{sender: sender, inbox: inbox}
}

// SendVerificationEmail sends the verification link to an approved applicant.
func (d *Dispatcher) SendVerificationEmail(ctx context.Context, e VerificationEmail) error {
	data := map[string]any{
		"Name":           e.Name,
		"VerifyURL":      e.VerifyURL,
		"InvitationCode": e.InvitationCode,
		"ExpiresAt":      e.ExpiresAt.UTC().Format("January 2, 2006"),
	}
	return d.send(ctx, e.To, e.Name, "Confirm your early access", "verification", data)
}

// SendWelcomeEmail confirms membership to a newly created member.
func (d *Dispatcher) SendWelcomeEmail(ctx context.Context, e WelcomeEmail) error {
	data := map[string]any{
		"Name":             e.Name,
		"MembershipNumber": e.MembershipNumber,
	}
	return d.send(ctx, e.To, e.Name, "Welcome to the network", "welcome", data)
}

// SendAdminNotification forwards a submission summary to the operator inbox.
func (d *Dispatcher) SendAdminNotification(ctx context.Context, n AdminNotification) error {
	if d.inbox == "" {
		return nil
	}

	keys := make([]string, 0, len(n.Fields))
	for k := range n.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][2]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, [2]string{k, n.Fields[k]})
	}

	data := map[string]any{"Subject": n.Subject, "Rows": rows}
	return d.send(ctx, d.inbox, "", n.Subject, "admin", data)
}

func (d *Dispatcher) send(ctx context.Context, to, name, subject, tmpl string, data map[string]any) error {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, tmpl, data); err != nil {
		return fmt.Errorf("failed to render %s text: %w", tmpl, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, tmpl, data); err != nil {
		return fmt.Errorf("failed to render %s html: %w", tmpl, err)
	}

	return d.sender.Send(ctx, Message{
		To:      to,
		ToName:  name,
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
	})
}

var textTemplates = texttemplate.Must(texttemplate.New("").Parse(`
{{define "verification"}}Hi {{.Name}},

Your application has been approved. Confirm your email to activate your membership:

{{.VerifyURL}}

Your invitation code is {{.InvitationCode}}. This link expires on {{.ExpiresAt}}.
{{end}}
{{define "welcome"}}Hi {{.Name}},

Your membership is active. Your membership number is {{.MembershipNumber}}.
{{end}}
{{define "admin"}}{{.Subject}}
{{range .Rows}}
{{index . 0}}: {{index . 1}}{{end}}
{{end}}
`))

var htmlTemplates = htmltemplate.Must(htmltemplate.New("").Parse(`
{{define "verification"}}<html><body>
	<h2>Confirm your early access</h2>
	<p>Hi {{.Name}},</p>
	<p>Your application has been approved. Confirm your email to activate your membership.</p>
	<p><a href="{{.VerifyURL}}">Confirm my email</a></p>
	<p>Or copy this link to your browser: {{.VerifyURL}}</p>
	<p>Your invitation code is <strong>{{.InvitationCode}}</strong>. This link expires on {{.ExpiresAt}}.</p>
</body></html>{{end}}
{{define "welcome"}}<html><body>
	<h2>Welcome aboard</h2>
	<p>Hi {{.Name}},</p>
	<p>Your membership is active. Your membership number is <strong>{{.MembershipNumber}}</strong>.</p>
</body></html>{{end}}
{{define "admin"}}<html><body>
	<h2>{{.Subject}}</h2>
	<table>{{range .Rows}}
		<tr><th align="left">{{index . 0}}</th><td>{{index . 1}}</td></tr>{{end}}
	</table>
</body></html>{{end}}
`))
