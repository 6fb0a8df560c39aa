package webui

import (
	"net/http"
	"sort"

	"koox.dev/busrouter/internal/routing"
)

type tableCount struct {
	Table string
	Rows  int
}

type debugPage struct {
	Stats     routing.Statistics
	Healthy   bool
	LastError string
	Env       string
	Tables    []tableCount
	TablesErr string
}

// debugIndexHandler shows the live snapshot and the row counts of the store.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	page := debugPage{Env: webUI.Config.Env.String()}

	if webUI.Manager != nil {
		page.Stats = webUI.Manager.Statistics()
		page.Healthy = webUI.Manager.IsHealthy()
		if err := webUI.Manager.LastError(); err != nil {
			page.LastError = err.Error()
		}
	}

	if webUI.Store != nil {
		counts, err := webUI.Store.TableCounts()
		if err != nil {
			page.TablesErr = err.Error()
		}
		for table, rows := range counts {
			page.Tables = append(page.Tables, tableCount{Table: table, Rows: rows})
		}
		sort.Slice(page.Tables, func(i, j int) bool { return page.Tables[i].Table < page.Tables[j].Table })
	}

	webUI.render(w, "debug.html", page)
}
