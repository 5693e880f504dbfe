// Package views renders the browser-facing HTML pages. Error pages show only
// the canned user message for the failure code; everything else stays in logs.
package views

import (
	"html/template"
	"net/http"

	bridgemodels "authbridge/internal/bridge/models"
	enginemodels "authbridge/internal/engine/models"
	dErrors "authbridge/pkg/domain-errors"
)

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign-in error</title></head>
<body>
<h1>Sign-in error</h1>
<p>{{.Message}}</p>
<p><a href="/">Start over</a></p>
</body>
</html>
`))

var loginPromptTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>External sign-in</title></head>
<body>
<h1>Sign in to continue</h1>
<p>{{.ClientName}} requires you to sign in with your external account.</p>
<p><a href="{{.ExternalLoginURL}}">Continue to sign-in</a></p>
</body>
</html>
`))

var termsTmpl = template.Must(template.New("terms").Parse(`<!DOCTYPE html>
<html>
<head><title>Consent</title></head>
<body>
<h1>Authorize {{.ClientName}}</h1>
{{if .Scopes}}
<p>The application requests access to:</p>
<ul>
{{range .Scopes}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
<form method="post" action="/terms/approve">
<input type="hidden" name="client_id" value="{{.ClientID}}">
<input type="hidden" name="state" value="{{.State}}">
{{range .Scopes}}<input type="hidden" name="scope" value="{{.}}">
{{end}}<button type="submit">Approve</button>
</form>
</body>
</html>
`))

// Error writes the generic HTML error page for err's domain code.
func Error(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = errorTmpl.Execute(w, struct{ Message string }{Message: dErrors.UserMessage(code)})
}

// LoginPrompt writes the consent-to-redirect page shown before the browser
// leaves for the external provider.
func LoginPrompt(w http.ResponseWriter, prompt bridgemodels.LoginPrompt) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginPromptTmpl.Execute(w, prompt)
}

// Terms writes the consent page.
func Terms(w http.ResponseWriter, view enginemodels.TermsView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = termsTmpl.Execute(w, view)
}
