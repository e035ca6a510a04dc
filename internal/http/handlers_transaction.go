package http

import (
	"net/http"

	applog "bjt/internal/log"
)

// handleTransactions lists a period's transactions or records a new one.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

// handleTransaction reads, replaces or removes a single transaction.
func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		BadRequestError("missing transaction id").Write(w)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		t, err := s.svc.Transactions.Get(ctx, id)
		if err != nil {
			writeServiceError(w, r, applog.OpRead, err)
			return
		}
		NewJSONResponse().Body(t).Write(w)

	case http.MethodPut:
		p := NewRequestBodyParser(w, r)
		if err := p.Parse(); err != nil {
			BadRequestError("invalid request body").Write(w)
			return
		}
		entry, err := p.ParseEntry()
		if err != nil {
			writeServiceError(w, r, applog.OpParse, err)
			return
		}
		t, err := s.svc.Transactions.Update(ctx, id, entry)
		if err != nil {
			writeServiceError(w, r, applog.OpUpdate, err)
			return
		}
		NewJSONResponse().Body(t).Write(w)

	case http.MethodDelete:
		if err := s.svc.Transactions.Delete(ctx, id); err != nil {
			writeServiceError(w, r, applog.OpDelete, err)
			return
		}
		NewJSONResponse().Status(http.StatusNoContent).Write(w)

	default:
		MethodNotAllowedError("GET, PUT, DELETE").Write(w)
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	txs, err := s.svc.Transactions.ListByPeriod(ctx, period)
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"period":       period,
		"transactions": txs,
	}).Write(w)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	entry, err := p.ParseEntry()
	if err != nil {
		writeServiceError(w, r, applog.OpParse, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	t, err := s.svc.Transactions.Create(ctx, entry)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		Body(t).
		Write(w)
}
