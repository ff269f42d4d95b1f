package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

const (
	defaultEmailIntro = "Segue a análise da intimação %s:"
	defaultSubject    = "Análise de Intimação"
	dueDateLayout     = "02/01/2006"

	// LogoContentID is the content ID of the inline logo in HTML emails.
	LogoContentID = "logo.png"
)

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<body>
{{- if .Logo}}
<img src="cid:{{.Logo}}" alt="logo" height="48">
{{- end}}
<h2>{{.Subject}}</h2>
<p>{{.Intro}}</p>
<table>
<tr><th align="left">Classificação</th><td>{{.Result.Classification}}</td></tr>
<tr><th align="left">Ação sugerida</th><td>{{.Result.SuggestedAction}}</td></tr>
{{- with .Result.Risk}}
<tr><th align="left">Risco de interpor</th><td>{{.FileRisk}}%</td></tr>
<tr><th align="left">Risco de não interpor</th><td>{{.SkipRisk}}%</td></tr>
{{- end}}
{{- range .Deadlines}}
<tr><th align="left">{{.}}</th><td></td></tr>
{{- end}}
</table>
</body>
</html>
`))

type emailView struct {
	Subject   string
	Intro     string
	Logo      string
	Result    *domain.ClassificationResult
	Deadlines []string
}

// renderReply builds the synchronous reply for an HTTP job.
func renderReply(job *domain.NotificationJob) *domain.Reply {
	return &domain.Reply{
		Status:   domain.StatusSuccess,
		File:     job.SourceName,
		Analysis: job.Body.Verdict,
		Result:   job.Body,
	}
}

// renderEmailReply builds the synchronous acknowledgement of an email job.
func renderEmailReply(job *domain.NotificationJob) *domain.Reply {
	return &domain.Reply{
		Status:  domain.StatusSuccess,
		Email:   job.Destination,
		Message: fmt.Sprintf("Análise enviada por e-mail para %s.", job.Destination),
		Result:  job.Body,
	}
}

// subjectFor returns the job subject or a default naming the document.
func subjectFor(job *domain.NotificationJob) string {
	if s := strings.TrimSpace(job.Subject); s != "" {
		return s
	}
	if job.SourceName != "" {
		return fmt.Sprintf("%s - %s", defaultSubject, job.SourceName)
	}
	return defaultSubject
}

// deadlineLines describes each deadline, with its due date when known.
func deadlineLines(res *domain.ClassificationResult) []string {
	lines := make([]string, 0, len(res.Deadlines))
	for _, d := range res.Deadlines {
		line := fmt.Sprintf("%s: %d dias úteis", d.Name, d.Days)
		if d.DueDate != nil {
			line += fmt.Sprintf(" (vence em %s)", d.DueDate.Format(dueDateLayout))
		}
		lines = append(lines, line)
	}
	return lines
}

// renderEmail renders the notification message of a job.
// The HTML alternative is only rendered when the job asks for it.
func renderEmail(job *domain.NotificationJob, from string, prompts driven.PromptStore, logo *domain.InlineAsset) (*domain.MailMessage, error) {
	intro := fmt.Sprintf(loadPrompt(prompts, driven.PromptEmailIntro, defaultEmailIntro), job.SourceName)
	deadlines := deadlineLines(job.Body)

	var text strings.Builder
	text.WriteString(intro)
	text.WriteString("\n\n")
	text.WriteString(job.Body.Verdict)
	text.WriteString("\n")
	if len(deadlines) > 0 {
		text.WriteString("\nPrazos:\n")
		for _, d := range deadlines {
			text.WriteString("- " + d + "\n")
		}
	}

	msg := &domain.MailMessage{
		From:    from,
		To:      job.Destination,
		Subject: subjectFor(job),
		Text:    text.String(),
	}
	if !job.HTMLEmail {
		return msg, nil
	}

	view := emailView{
		Subject:   msg.Subject,
		Intro:     intro,
		Result:    job.Body,
		Deadlines: deadlines,
	}
	if logo != nil {
		view.Logo = logo.ContentID
		msg.Inline = []domain.InlineAsset{*logo}
	}
	var html bytes.Buffer
	if err := emailTemplate.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("render html email: %w", err)
	}
	msg.HTML = html.String()
	return msg, nil
}

// loadPrompt returns the named prompt or fallback when the store is absent or fails.
func loadPrompt(prompts driven.PromptStore, name, fallback string) string {
	if prompts == nil {
		return fallback
	}
	p, err := prompts.Load(name)
	if err != nil || strings.TrimSpace(p) == "" {
		return fallback
	}
	return p
}
