package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodstore/api/middleware"
	"github.com/angelmondragon/foodstore/api/responses"
	"github.com/angelmondragon/foodstore/api/validators"
	"github.com/angelmondragon/foodstore/internal/statistics"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

// AdminStatistics reports user and revenue figures, optionally limited to
// orders created between from and to (inclusive).
func AdminStatistics(svc statistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := validators.ParseQueryTime(r, "from", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Compute(r.Context(), middleware.SessionFromContext(r.Context()), statistics.Window{From: from, To: to})
		writeResult(w, r, logg, report, err)
	}
}
