package mailer

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
)

type link struct {
	BaseURL string
	Token   string
}

type feedback struct {
	Name  string
	Email string
	Body  string
}

func render(name string, data any) (html, text string, err error) {
	var h, t bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&h, name+".html.tmpl", data); err != nil {
		return "", "", err
	}
	if err := textTemplates.ExecuteTemplate(&t, name+".txt.tmpl", data); err != nil {
		return "", "", err
	}
	return h.String(), t.String(), nil
}

func build(to, subject, name string, data any) (Message, error) {
	html, text, err := render(name, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: html, Text: text}, nil
}

// Verification is the message carrying an email verification link.
func Verification(to, baseURL, token string) (Message, error) {
	return build(to, "Norse Books - Verify Email", "verify", link{BaseURL: baseURL, Token: token})
}

// PasswordReset is the message carrying a password reset link.
func PasswordReset(to, baseURL, token string) (Message, error) {
	return build(to, "Norse Books - Password Reset", "reset", link{BaseURL: baseURL, Token: token})
}

// Feedback forwards a user's feedback to the site address.
func Feedback(to, name, email, body string) (Message, error) {
	return build(to, "Norse Books - Feedback", "feedback", feedback{Name: name, Email: email, Body: body})
}
