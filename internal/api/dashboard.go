package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/MikeSquared-Agency/Stackelberg/internal/config"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

type DashboardHandler struct {
	cfg *config.Config
}

func NewDashboardHandler(cfg *config.Config) *DashboardHandler {
	return &DashboardHandler{cfg: cfg}
}

type slider struct {
	Name  string
	Value float64
}

// Index serves the slider dashboard. The page itself is static; the chart
// is fetched from /api/v1/figure on every slider change.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	d := h.cfg.Dashboard
	data := map[string]interface{}{
		"Title":  d.Title,
		"Slider": d.Slider,
		"Sliders": []slider{
			{"a", d.Defaults.A},
			{"b", d.Defaults.B},
			{"c", d.Defaults.C},
			{"d", d.Defaults.D},
		},
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
