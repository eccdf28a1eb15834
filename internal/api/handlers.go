package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
	"github.com/zapponejosh/gatherings-api/internal/config"
	"github.com/zapponejosh/gatherings-api/internal/database"
	"github.com/zapponejosh/gatherings-api/internal/logger"
	"github.com/zapponejosh/gatherings-api/internal/recurrence"
	"github.com/zapponejosh/gatherings-api/internal/rule"
)

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db       *database.DB
	expander *rule.Expander
	cfg      *config.Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *database.DB, cfg *config.Config, log *slog.Logger) *Handlers {
	h := &Handlers{
		db:     db,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
	h.expander = rule.NewExpander(
		rule.WithEngine(recurrence.NewEngine(recurrence.DefaultMaxInstances)),
		rule.WithClock(func() time.Time { return h.now() }),
		rule.WithLogger(log),
	)
	return h
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Health(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]string{
		"status": "healthy",
	})
}

// =============================================================================
// Rule endpoints
// =============================================================================

// ruleRequest is the body of the /rules endpoints. Count and Until are only
// read by /rules/occurrences, where exactly one of them is required.
type ruleRequest struct {
	Rule     json.RawMessage `json:"rule"`
	Count    *int            `json:"count,omitempty"`
	Until    string          `json:"until,omitempty"`
	Start    string          `json:"start,omitempty"`
	Timezone string          `json:"timezone,omitempty"`
}

type ruleResponse struct {
	Rule       rule.Rule `json:"rule"`
	Valid      bool      `json:"valid,omitempty"`
	Expression string    `json:"expression,omitempty"`
	Sentence   string    `json:"sentence,omitempty"`
}

type occurrencesResponse struct {
	Rule        rule.Rule         `json:"rule"`
	Sentence    string            `json:"sentence"`
	Occurrences []rule.Occurrence `json:"occurrences"`
	Truncated   bool              `json:"truncated,omitempty"`
}

// decodeRuleRequest reads a ruleRequest and its validated rule. It writes
// the error response itself and reports whether the caller may continue.
func (h *Handlers) decodeRuleRequest(w http.ResponseWriter, r *http.Request) (ruleRequest, rule.Rule, bool) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body: "+err.Error())
		return req, rule.Rule{}, false
	}
	if len(req.Rule) == 0 {
		WriteBadRequest(w, "rule is required")
		return req, rule.Rule{}, false
	}

	rl, err := rule.Decode(req.Rule)
	if err != nil {
		h.writeError(w, r, err)
		return req, rule.Rule{}, false
	}
	return req, rl, true
}

// ValidateRule handles POST /api/v1/rules/validate
func (h *Handlers) ValidateRule(w http.ResponseWriter, r *http.Request) {
	_, rl, ok := h.decodeRuleRequest(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, ruleResponse{Rule: rl, Valid: true})
}

// RuleExpression handles POST /api/v1/rules/expression
func (h *Handlers) RuleExpression(w http.ResponseWriter, r *http.Request) {
	_, rl, ok := h.decodeRuleRequest(w, r)
	if !ok {
		return
	}

	expr, err := rule.Expression(rl)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, ruleResponse{Rule: rl, Expression: expr})
}

// RuleSentence handles POST /api/v1/rules/sentence
func (h *Handlers) RuleSentence(w http.ResponseWriter, r *http.Request) {
	_, rl, ok := h.decodeRuleRequest(w, r)
	if !ok {
		return
	}

	sentence, err := rule.Sentence(rl)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, ruleResponse{Rule: rl, Sentence: sentence})
}

// RuleOccurrences handles POST /api/v1/rules/occurrences
func (h *Handlers) RuleOccurrences(w http.ResponseWriter, r *http.Request) {
	req, rl, ok := h.decodeRuleRequest(w, r)
	if !ok {
		return
	}

	loc := h.cfg.Location()
	if req.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(req.Timezone); err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid timezone: %s", req.Timezone))
			return
		}
	}

	q, err := h.parseBounds(req.Count, req.Until, req.Start, loc)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	h.writeOccurrences(w, r, rl, q)
}

// InferRule handles GET /api/v1/rules/infer?date=YYYY-MM-DD[&weekday=SU][&last=true]
func (h *Handlers) InferRule(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	dateStr := query.Get("date")
	if dateStr == "" {
		WriteBadRequest(w, "date parameter is required")
		return
	}
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	reference := mo.None[time.Weekday]()
	if code := query.Get("weekday"); code != "" {
		wd, err := rule.ParseWeekday("weekday", code)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		reference = mo.Some(wd)
	}

	last := false
	if s := query.Get("last"); s != "" {
		if last, err = strconv.ParseBool(s); err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid last parameter: %s", s))
			return
		}
	}

	infer := rule.InferFromDate
	if last {
		infer = rule.InferLastDay
	}
	rl, err := infer(date, reference)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := ruleResponse{Rule: rl}
	if resp.Expression, err = rule.Expression(rl); err != nil {
		h.writeError(w, r, err)
		return
	}
	if resp.Sentence, err = rule.Sentence(rl); err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, resp)
}

// =============================================================================
// Reference data
// =============================================================================

// ListSpecialDays handles GET /api/v1/special-days
func (h *Handlers) ListSpecialDays(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, calendar.SpecialDays())
}

// ListHolidays handles GET /api/v1/holidays/{year}?region=US|GB
func (h *Handlers) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	region := h.cfg.Region()
	if s := r.URL.Query().Get("region"); s != "" {
		if region, err = calendar.ParseRegion(s); err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}

	holidays, err := calendar.Holidays(region, year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]any{
		"year":     year,
		"region":   region,
		"holidays": holidays,
	})
}

// =============================================================================
// Helpers
// =============================================================================

// occurrenceBounds is a parsed count or until bound plus a start instant.
type occurrenceBounds struct {
	count mo.Option[int]
	until mo.Option[time.Time]
	start time.Time
}

// parseBounds checks that exactly one of count and until is given. Dates are
// read in loc; until covers its whole day and start defaults to today.
func (h *Handlers) parseBounds(count *int, until, start string, loc *time.Location) (occurrenceBounds, error) {
	var q occurrenceBounds

	switch {
	case count != nil && until != "":
		return q, errors.New("give either count or until, not both")
	case count != nil:
		if *count < 0 {
			return q, errors.New("count must not be negative")
		}
		if *count > h.cfg.MaxOccurrences {
			return q, fmt.Errorf("count must be at most %d", h.cfg.MaxOccurrences)
		}
		q.count = mo.Some(*count)
	case until != "":
		d, err := time.ParseInLocation(time.DateOnly, until, loc)
		if err != nil {
			return q, fmt.Errorf("invalid until date: %s. Use YYYY-MM-DD", until)
		}
		q.until = mo.Some(d.Add(24*time.Hour - time.Second))
	default:
		return q, errors.New("one of count or until is required")
	}

	if start == "" {
		y, m, d := h.now().In(loc).Date()
		q.start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		return q, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, start, loc)
	if err != nil {
		return q, fmt.Errorf("invalid start date: %s. Use YYYY-MM-DD", start)
	}
	q.start = d
	return q, nil
}

// expand resolves rl within q. Results past MaxOccurrences are cut off and
// reported as truncated.
func (h *Handlers) expand(rl rule.Rule, q occurrenceBounds) ([]rule.Occurrence, bool, error) {
	var (
		occs []rule.Occurrence
		err  error
	)
	if n, ok := q.count.Get(); ok {
		occs, err = h.expander.Occurrences(rl, n, mo.Some(q.start))
	} else {
		occs, err = h.expander.OccurrencesUntil(rl, q.until.MustGet(), mo.Some(q.start))
	}
	if err != nil {
		return nil, false, err
	}
	if len(occs) > h.cfg.MaxOccurrences {
		return occs[:h.cfg.MaxOccurrences], true, nil
	}
	return occs, false, nil
}

func (h *Handlers) writeOccurrences(w http.ResponseWriter, r *http.Request, rl rule.Rule, q occurrenceBounds) {
	occs, truncated, err := h.expand(rl, q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sentence, err := rule.Sentence(rl)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, occurrencesResponse{
		Rule:        rl,
		Sentence:    sentence,
		Occurrences: occs,
		Truncated:   truncated,
	})
}

// writeError maps an error to its HTTP response. Rule errors keep their
// kind as the error code; anything unrecognised is logged and hidden.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, rule.ErrTemporal):
		WriteUnprocessable(w, err.Error(), "TEMPORAL_PRECONDITION")
	case errors.Is(err, rule.ErrUnsupported):
		WriteUnprocessable(w, err.Error(), "UNSUPPORTED")
	case errors.Is(err, rule.ErrInvalidRule):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_RULE")
	case errors.Is(err, calendar.ErrYearOutOfRange):
		WriteUnprocessable(w, err.Error(), "TEMPORAL_PRECONDITION")
	case database.IsNotFound(err):
		WriteNotFound(w, "Gathering not found")
	case errors.Is(err, database.ErrDuplicate):
		WriteError(w, http.StatusConflict, "A gathering with this slug already exists", "DUPLICATE")
	default:
		logger.Error(r.Context(), "request failed", err, slog.String("path", r.URL.Path))
		WriteInternalError(w, "Internal server error")
	}
}

// parseYear parses a calendar year in 1..9999.
func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("invalid year: %s", s)
	}
	return year, nil
}

// decodeJSON decodes JSON request body.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
