package webui

import (
	"bytes"
	"log/slog"
	"net/http"

	"koox.dev/busrouter/internal/logging"
	"koox.dev/busrouter/internal/routing"
)

type indexPage struct {
	Year   int
	Stats  routing.Statistics
	Routes []string
}

func (webUI *WebUI) indexHandler(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Year: webUI.Clock.Now().Year()}
	if webUI.Manager != nil {
		page.Stats = webUI.Manager.Statistics()
		if engine := webUI.Manager.Engine(); engine != nil {
			page.Routes = engine.Routes()
		}
	}
	webUI.render(w, "index.html", page)
}

// render buffers the template so a failure can still produce a clean 500.
func (webUI *WebUI) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger := webUI.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logging.LogError(logger, "failed to render page", err, slog.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
