package http

import (
	"net/http"
	"strings"

	"bjt/internal/core"
	"bjt/internal/report"
)

// handleReport serves the monthly report of a period.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	period, err := ParsePeriodParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	view, err := s.svc.Reports.View(ctx, period)
	if err != nil {
		writeServiceError(w, r, "report", err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

// handleDailyReport serves one day of a period, optionally narrowed to an
// asset type or name.
func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	query := r.URL.Query()
	period, err := ParsePeriodParams(query, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	day, err := ParseDayParam(query)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	assetType, err := core.ParseAssetType(strings.ToLower(sanitizeInput(query.Get("asset_type"))))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	filter := report.Filter{
		AssetType: assetType,
		AssetName: sanitizeInput(query.Get("asset_name")),
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	totals, err := s.svc.Reports.Daily(ctx, period, day, filter)
	if err != nil {
		writeServiceError(w, r, "daily_report", err)
		return
	}
	NewJSONResponse().Body(totals).Write(w)
}
