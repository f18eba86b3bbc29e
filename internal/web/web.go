// Package web holds the HTML templates, compiled into the binary.
package web

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"deref": func(s *string) string {
		if s == nil {
			return "-"
		}
		return *s
	},
	"selected": func(a, b int64) bool { return a == b },
}

// Templates parses every page. Each file defines one named template
// (login, dashboard, ...) built from the shared header and footer.
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

// Page names passed to gin's c.HTML.
const (
	PageLogin           = "login"
	PageDashboard       = "dashboard"
	PageAppointments    = "appointments_list"
	PageAppointmentForm = "appointment_form"
	PageReportsDaily    = "reports_daily"
	PageNotFound        = "error_404"
	PageServerError     = "error_500"
)
