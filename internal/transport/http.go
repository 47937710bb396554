package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ganot/overlap/internal/ics"
	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
)

// CommandHandler dispatches tool commands on behalf of a user.
type CommandHandler interface {
	Handle(ctx context.Context, userID, method string, params json.RawMessage) (any, error)
	ExportMember(ctx context.Context, userID, groupID string) (string, error)
	ExportResults(ctx context.Context, userID, groupID string, limit int) (string, error)
}

// RequestObserver records REST request outcomes.
type RequestObserver interface {
	ObserveHTTPRequest(route, method string, code int, elapsed time.Duration)
}

// Options configures the HTTP server.
type Options struct {
	// Auth wraps every /api route. Nil leaves requests without a user,
	// which then fail with 401.
	Auth func(http.Handler) http.Handler
	// MCP, when set, is mounted at /mcp behind Auth. The MCP server still
	// resolves the bearer token itself to learn the user.
	MCP      http.Handler
	Metrics  http.Handler
	Observer RequestObserver
	Logger   *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler  CommandHandler
	validate *validator.Validate
	observer RequestObserver
	auth     func(http.Handler) http.Handler
	logger   *slog.Logger
}

// NewServer creates the HTTP router.
func NewServer(handler CommandHandler, opts Options) *httprouter.Router {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Auth == nil {
		opts.Auth = func(next http.Handler) http.Handler { return next }
	}
	srv := &Server{
		handler:  handler,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		observer: opts.Observer,
		auth:     opts.Auth,
		logger:   opts.Logger,
	}

	r := httprouter.New()
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusMethodNotAllowed, codeInvalidInput, "method not allowed")
	})
	r.PanicHandler = func(w http.ResponseWriter, req *http.Request, v any) {
		srv.logger.Error("http handler panic", "method", req.Method, "path", req.URL.Path, "panic", v)
		writeAPIError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}

	r.HandlerFunc(http.MethodGet, "/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Handler(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.MCP != nil {
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
			r.Handler(method, "/mcp", opts.Auth(opts.MCP))
		}
	}

	srv.route(r, http.MethodPost, "/api/v1/rpc", srv.handleRPC)

	srv.route(r, http.MethodPost, "/api/v1/groups", srv.handleCreateGroup)
	srv.route(r, http.MethodGet, "/api/v1/groups/:group_id", srv.handleGetGroup)
	srv.route(r, http.MethodPatch, "/api/v1/groups/:group_id", srv.handleUpdateGroup)
	srv.route(r, http.MethodDelete, "/api/v1/groups/:group_id", srv.handleDeleteGroup)
	srv.route(r, http.MethodGet, "/api/v1/groups/:group_id/invitation", srv.handleInvitation)
	srv.route(r, http.MethodPost, "/api/v1/groups/:group_id/invitation/:action", srv.handleInvitation)
	srv.route(r, http.MethodPost, "/api/v1/groups/:group_id/members", srv.handleJoin)
	srv.route(r, http.MethodDelete, "/api/v1/groups/:group_id/members/:user_id", srv.handleRemoveMember)

	srv.route(r, http.MethodGet, "/api/v1/groups/:group_id/availability", srv.handleListAvailability)
	srv.route(r, http.MethodPost, "/api/v1/groups/:group_id/availability", srv.handleAddAvailability)
	srv.route(r, http.MethodDelete, "/api/v1/groups/:group_id/availability", srv.handleClearAvailability)
	srv.route(r, http.MethodPost, "/api/v1/groups/:group_id/availability/remove", srv.handleRemoveAvailability)
	srv.route(r, http.MethodPost, "/api/v1/groups/:group_id/availability/batch-delete", srv.handleBatchDelete)
	srv.route(r, http.MethodPost, "/api/v1/groups/:group_id/availability/holidays", srv.handleAddHolidays)
	srv.route(r, http.MethodDelete, "/api/v1/groups/:group_id/availability/:id", srv.handleDeleteInterval)
	srv.route(r, http.MethodGet, "/api/v1/groups/:group_id/availability.ics", srv.handleMemberICS)

	srv.route(r, http.MethodGet, "/api/v1/groups/:group_id/results", srv.handleResults)
	srv.route(r, http.MethodGet, "/api/v1/groups/:group_id/results.ics", srv.handleResultsICS)
	srv.route(r, http.MethodGet, "/api/v1/groups/:group_id/calendar", srv.handleCalendar)
	srv.route(r, http.MethodGet, "/api/v1/groups/:group_id/member-days", srv.handleMemberDays)
	srv.route(r, http.MethodGet, "/api/v1/groups/:group_id/activity", srv.handleActivity)
	srv.route(r, http.MethodGet, "/api/v1/holidays", srv.handleHolidays)

	return r
}

// apiHandler serves one authenticated route.
type apiHandler func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string)

// route registers h behind auth and request metrics.
func (s *Server) route(r *httprouter.Router, method, path string, h apiHandler) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		userID, ok := UserFromContext(req.Context())
		if !ok || userID == "" {
			writeAPIError(w, http.StatusUnauthorized, codeUnauthorized, "missing user")
			return
		}
		h(w, req, httprouter.ParamsFromContext(req.Context()), userID)
	})
	wrapped := s.auth(inner)

	r.Handler(method, path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		wrapped.ServeHTTP(rec, req)
		if s.observer != nil {
			s.observer.ObserveHTTPRequest(path, method, rec.status, time.Since(started))
		}
	}))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// dispatch runs one command and writes the envelope.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, userID, method string, params map[string]any, status int) {
	raw, err := json.Marshal(params)
	if err != nil {
		s.fail(w, r, fmt.Errorf("encoding params: %w", err))
		return
	}
	result, err := s.handler.Handle(r.Context(), userID, method, raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, status, result)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeAPIError(w, status, code, message)
}

type createGroupRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"max=500"`
	IsPublic     bool   `json:"is_public"`
	WeekendsOnly bool   `json:"weekends_only"`
	CountryCode  string `json:"country_code" validate:"omitempty,len=2,alpha"`
}

type updateGroupRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	IsPublic     *bool   `json:"is_public"`
	WeekendsOnly *bool   `json:"weekends_only"`
	CountryCode  *string `json:"country_code" validate:"omitempty,len=2,alpha"`
}

type rangeRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// decode reads and validates a JSON body. It writes the error response
// itself and reports whether the caller should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeAPIError(w, http.StatusBadRequest, codeInvalidInput, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			code := codeInvalidInput
			if fe.Tag() == "datetime" {
				code = codeInvalidRange
			}
			writeAPIError(w, http.StatusBadRequest, code, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
			return false
		}
		writeAPIError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return false
	}
	return true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request, _ httprouter.Params, userID string) {
	var req createGroupRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, userID, "create_group", map[string]any{
		"name":          req.Name,
		"description":   req.Description,
		"is_public":     req.IsPublic,
		"weekends_only": req.WeekendsOnly,
		"country_code":  req.CountryCode,
	}, http.StatusCreated)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	s.dispatch(w, r, userID, "get_group", map[string]any{"group_id": ps.ByName("group_id")}, http.StatusOK)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	var req updateGroupRequest
	if !s.decode(w, r, &req) {
		return
	}
	params := map[string]any{"group_id": ps.ByName("group_id")}
	if req.Name != nil {
		params["name"] = *req.Name
	}
	if req.Description != nil {
		params["description"] = *req.Description
	}
	if req.IsPublic != nil {
		params["is_public"] = *req.IsPublic
	}
	if req.WeekendsOnly != nil {
		params["weekends_only"] = *req.WeekendsOnly
	}
	if req.CountryCode != nil {
		params["country_code"] = *req.CountryCode
	}
	s.dispatch(w, r, userID, "update_group", params, http.StatusOK)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	s.dispatch(w, r, userID, "delete_group", map[string]any{"group_id": ps.ByName("group_id")}, http.StatusOK)
}

// handleInvitation shows the invitation on GET and applies the :action
// segment (enable, disable or regenerate) on POST.
func (s *Server) handleInvitation(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	action := ps.ByName("action")
	if action == "" {
		action = "get"
	}
	s.dispatch(w, r, userID, "manage_invitation", map[string]any{"group_id": ps.ByName("group_id"), "action": action}, http.StatusOK)
}

// handleJoin takes the invitation token of a private group from the token
// query parameter.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	params := map[string]any{"group_id": ps.ByName("group_id")}
	if token := r.URL.Query().Get("token"); token != "" {
		params["token"] = token
	}
	s.dispatch(w, r, userID, "join_group", params, http.StatusOK)
}

// handleRemoveMember leaves the group when the target is the caller and
// removes someone else otherwise.
func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	groupID, target := ps.ByName("group_id"), ps.ByName("user_id")
	if target == "me" || target == userID {
		s.dispatch(w, r, userID, "leave_group", map[string]any{"group_id": groupID}, http.StatusOK)
		return
	}
	s.dispatch(w, r, userID, "remove_member", map[string]any{"group_id": groupID, "user_id": target}, http.StatusOK)
}

func (s *Server) handleListAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	s.dispatch(w, r, userID, "list_availability", map[string]any{"group_id": ps.ByName("group_id")}, http.StatusOK)
}

func (s *Server) handleAddAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	var req rangeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, userID, "add_availability", map[string]any{
		"group_id":   ps.ByName("group_id"),
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
	}, http.StatusCreated)
}

func (s *Server) handleRemoveAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	var req rangeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, userID, "remove_availability", map[string]any{
		"group_id":   ps.ByName("group_id"),
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
	}, http.StatusOK)
}

func (s *Server) handleClearAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	s.dispatch(w, r, userID, "clear_availability", map[string]any{"group_id": ps.ByName("group_id")}, http.StatusOK)
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	var req batchDeleteRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, userID, "delete_availability", map[string]any{
		"group_id": ps.ByName("group_id"),
		"ids":      req.IDs,
	}, http.StatusOK)
}

func (s *Server) handleDeleteInterval(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	s.dispatch(w, r, userID, "delete_availability", map[string]any{
		"group_id": ps.ByName("group_id"),
		"id":       ps.ByName("id"),
	}, http.StatusOK)
}

func (s *Server) handleAddHolidays(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	s.dispatch(w, r, userID, "add_all_holidays", map[string]any{
		"group_id": ps.ByName("group_id"),
		"year":     year,
	}, http.StatusOK)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	s.dispatch(w, r, userID, "get_results", map[string]any{
		"group_id": ps.ByName("group_id"),
		"limit":    limit,
	}, http.StatusOK)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	s.dispatch(w, r, userID, "get_calendar", map[string]any{
		"group_id": ps.ByName("group_id"),
		"month":    r.URL.Query().Get("month"),
	}, http.StatusOK)
}

func (s *Server) handleMemberDays(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	s.dispatch(w, r, userID, "get_member_days", map[string]any{"group_id": ps.ByName("group_id")}, http.StatusOK)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	params := map[string]any{
		"group_id": ps.ByName("group_id"),
		"user_id":  r.URL.Query().Get("user_id"),
		"limit":    limit,
		"offset":   offset,
	}
	if t := r.URL.Query().Get("type"); t != "" {
		params["type"] = t
	}
	s.dispatch(w, r, userID, "get_recent_activity", params, http.StatusOK)
}

func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request, _ httprouter.Params, userID string) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	s.dispatch(w, r, userID, "preview_holidays", map[string]any{
		"country": r.URL.Query().Get("country"),
		"year":    year,
	}, http.StatusOK)
}

func (s *Server) handleMemberICS(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	body, err := s.handler.ExportMember(r.Context(), userID, ps.ByName("group_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeICS(w, "availability.ics", body)
}

func (s *Server) handleResultsICS(w http.ResponseWriter, r *http.Request, ps httprouter.Params, userID string) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	body, err := s.handler.ExportResults(r.Context(), userID, ps.ByName("group_id"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeICS(w, "results.ics", body)
}

func writeICS(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", ics.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
