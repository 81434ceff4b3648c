package handler

import (
	"html/template"
	"net/http"

	"github.com/nimbusapp/nimbus-api/internal/infrastructure/identity"
)

// PageHandler serves the marketing page, the auth screens and the dashboard
// chrome. These are presentation glue; all state transitions happen through
// the /auth endpoints and the guard middleware.
type PageHandler struct {
	factory *identity.Factory
}

func NewPageHandler(factory *identity.Factory) *PageHandler {
	return &PageHandler{factory: factory}
}

type pageData struct {
	Title string
	Email string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<main id="app" data-page="{{.Title}}"{{if .Email}} data-email="{{.Email}}"{{end}}></main>
</body>
</html>
`))

func (h *PageHandler) render(w http.ResponseWriter, title string, data pageData) {
	data.Title = title
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = pageTmpl.Execute(w, data)
}

func (h *PageHandler) Marketing(w http.ResponseWriter, r *http.Request) {
	h.render(w, "Nimbus", pageData{})
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, "Log in", pageData{})
}

func (h *PageHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.render(w, "Sign up", pageData{})
}

func (h *PageHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	h.render(w, "Enter verification code", pageData{})
}

func (h *PageHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.render(w, "Forgot password", pageData{})
}

func (h *PageHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	h.render(w, "Reset password", pageData{})
}

func (h *PageHandler) AuthCodeError(w http.ResponseWriter, r *http.Request) {
	h.render(w, "Link invalid or expired", pageData{})
}

// Dashboard resolves the current user so the page can show who is signed in.
// The guard has already redirected unauthenticated traffic.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := pageData{}
	if user, err := h.factory.ForRequest(r).User(r.Context()); err == nil {
		data.Email = user.Email
	}
	h.render(w, "Dashboard", data)
}

func (h *PageHandler) Settings(w http.ResponseWriter, r *http.Request) {
	data := pageData{}
	if user, err := h.factory.ForRequest(r).User(r.Context()); err == nil {
		data.Email = user.Email
	}
	h.render(w, "Settings", data)
}
