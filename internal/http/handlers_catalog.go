package http

import (
	"net/http"

	"bjt/internal/bootstrap"
	"bjt/internal/core"
)

// handleAssets serves the fleet shown in entry forms.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	catalog := core.DefaultCatalog()
	if s.svc.Assets != nil {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		var err error
		if catalog, err = bootstrap.LoadCatalog(ctx, s.svc.Assets); err != nil {
			writeServiceError(w, r, "assets", err)
			return
		}
	}
	NewJSONResponse().Body(catalog).Write(w)
}

type periodOption struct {
	core.Period
	Value string `json:"value"`
}

// handlePeriods lists the periods a report can be requested for.
func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	now := s.now()
	periods := core.SelectablePeriods(now)
	options := make([]periodOption, len(periods))
	for i, p := range periods {
		options[i] = periodOption{Period: p, Value: p.String()}
	}
	current := core.PeriodOf(now)
	NewJSONResponse().Body(map[string]any{
		"current": periodOption{Period: current, Value: current.String()},
		"periods": options,
	}).Write(w)
}
