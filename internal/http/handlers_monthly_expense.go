package http

import (
	"net/http"

	applog "bjt/internal/log"
)

// handleMonthlyExpense reads, upserts or removes the fixed costs of the
// requested period.
func (s *Server) handleMonthlyExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPut, http.MethodDelete); resp != nil {
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

	switch r.Method {
	case http.MethodGet:
		e, err := s.svc.MonthlyExpenses.Get(ctx, period)
		if err != nil {
			writeServiceError(w, r, applog.OpRead, err)
			return
		}
		if e == nil {
			NotFoundError("no monthly expense for " + period.String()).Write(w)
			return
		}
		NewJSONResponse().Body(e).Write(w)

	case http.MethodPut:
		p := NewRequestBodyParser(w, r)
		if err := p.Parse(); err != nil {
			BadRequestError("invalid request body").Write(w)
			return
		}
		e, err := p.ParseMonthlyExpense(period)
		if err != nil {
			writeServiceError(w, r, applog.OpParse, err)
			return
		}
		stored, err := s.svc.MonthlyExpenses.Upsert(ctx, e)
		if err != nil {
			writeServiceError(w, r, applog.OpUpsert, err)
			return
		}
		NewJSONResponse().Body(stored).Write(w)

	case http.MethodDelete:
		if err := s.svc.MonthlyExpenses.Delete(ctx, period); err != nil {
			writeServiceError(w, r, applog.OpDelete, err)
			return
		}
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
	}
}
