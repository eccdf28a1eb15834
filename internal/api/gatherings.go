package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
	"github.com/zapponejosh/gatherings-api/internal/database"
	"github.com/zapponejosh/gatherings-api/internal/logger"
	"github.com/zapponejosh/gatherings-api/internal/rule"
	"github.com/zapponejosh/gatherings-api/internal/schedule"
)

// defaultFeedCount is how many occurrences a calendar feed carries when the
// request names no bound.
const defaultFeedCount = 10

// gatheringRequest is the body of POST and PUT /api/v1/gatherings.
type gatheringRequest struct {
	Slug        string          `json:"slug,omitempty"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Rule        json.RawMessage `json:"rule"`
	Timezone    string          `json:"timezone,omitempty"`
}

// decodeGathering reads a gatheringRequest into g and validates it. It
// writes the error response itself and reports whether the caller may
// continue.
func (h *Handlers) decodeGathering(w http.ResponseWriter, r *http.Request, g *database.Gathering) bool {
	var req gatheringRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body: "+err.Error())
		return false
	}
	if len(req.Rule) == 0 {
		WriteBadRequest(w, "rule is required")
		return false
	}
	if err := json.Unmarshal(req.Rule, &g.Rule); err != nil {
		h.writeError(w, r, err)
		return false
	}

	g.Slug = req.Slug
	g.Name = req.Name
	g.Description = req.Description
	g.Timezone = req.Timezone

	if err := g.Validate(); err != nil {
		if rule.KindOf(err) != "" {
			h.writeError(w, r, err)
		} else {
			WriteBadRequest(w, err.Error())
		}
		return false
	}
	return true
}

// loadGathering resolves the {id} path parameter, which may be a numeric ID
// or a slug.
func (h *Handlers) loadGathering(w http.ResponseWriter, r *http.Request) (*database.Gathering, bool) {
	key := chi.URLParam(r, "id")

	var (
		g   *database.Gathering
		err error
	)
	if id, convErr := strconv.ParseInt(key, 10, 64); convErr == nil {
		g, err = h.db.GetGathering(r.Context(), id)
	} else {
		g, err = h.db.GetGatheringBySlug(r.Context(), key)
	}
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return g, true
}

// ListGatherings handles GET /api/v1/gatherings?kind=&limit=&offset=
func (h *Handlers) ListGatherings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := database.ListOptions{Kind: query.Get("kind")}
	switch opts.Kind {
	case "", rule.KindNthDay, rule.KindLastDay, rule.KindSpecial:
	default:
		WriteBadRequest(w, fmt.Sprintf("Invalid kind: %s", opts.Kind))
		return
	}

	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		s := query.Get(name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			WriteBadRequest(w, fmt.Sprintf("Invalid %s: %s", name, s))
			return
		}
		*dst = n
	}

	gatherings, err := h.db.ListGatherings(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	total, err := h.db.CountGatherings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	WriteSuccess(w, map[string]any{
		"gatherings": gatherings,
		"total":      total,
	})
}

// CreateGathering handles POST /api/v1/gatherings
func (h *Handlers) CreateGathering(w http.ResponseWriter, r *http.Request) {
	var g database.Gathering
	if !h.decodeGathering(w, r, &g) {
		return
	}

	if err := h.db.CreateGathering(r.Context(), &g); err != nil {
		h.writeError(w, r, err)
		return
	}

	logger.Info(r.Context(), "gathering created", "id", g.ID, "slug", g.Slug)
	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: g})
}

// GetGathering handles GET /api/v1/gatherings/{id}
func (h *Handlers) GetGathering(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGathering(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, g)
}

// UpdateGathering handles PUT /api/v1/gatherings/{id}
func (h *Handlers) UpdateGathering(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadGathering(w, r)
	if !ok {
		return
	}

	g := database.Gathering{ID: existing.ID}
	if !h.decodeGathering(w, r, &g) {
		return
	}
	if g.Slug == "" {
		g.Slug = existing.Slug
	}

	if err := h.db.UpdateGathering(r.Context(), &g); err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, g)
}

// DeleteGathering handles DELETE /api/v1/gatherings/{id}
func (h *Handlers) DeleteGathering(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGathering(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteGathering(r.Context(), g.ID); err != nil {
		h.writeError(w, r, err)
		return
	}

	logger.Info(r.Context(), "gathering deleted", "id", g.ID, "slug", g.Slug)
	WriteSuccess(w, map[string]string{"message": "Gathering deleted"})
}

// gatheringBounds parses count, until and start from the query string in the
// gathering's time zone. Calendar feeds pass a default count.
func (h *Handlers) gatheringBounds(r *http.Request, g *database.Gathering, defaultCount mo.Option[int]) (occurrenceBounds, error) {
	loc, err := g.Location()
	if err != nil {
		return occurrenceBounds{}, err
	}

	query := r.URL.Query()
	var count *int
	if s := query.Get("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return occurrenceBounds{}, fmt.Errorf("invalid count: %s", s)
		}
		count = &n
	} else if n, ok := defaultCount.Get(); ok && query.Get("until") == "" {
		count = &n
	}
	return h.parseBounds(count, query.Get("until"), query.Get("start"), loc)
}

// GatheringOccurrences handles GET /api/v1/gatherings/{id}/occurrences
func (h *Handlers) GatheringOccurrences(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGathering(w, r)
	if !ok {
		return
	}

	q, err := h.gatheringBounds(r, g, mo.None[int]())
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	h.writeOccurrences(w, r, g.Rule, q)
}

// gatheringFeed builds the calendar feed of one gathering.
func (h *Handlers) gatheringFeed(w http.ResponseWriter, r *http.Request) (*schedule.Feed, bool) {
	g, ok := h.loadGathering(w, r)
	if !ok {
		return nil, false
	}

	q, err := h.gatheringBounds(r, g, mo.Some(defaultFeedCount))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return nil, false
	}
	occs, _, err := h.expand(g.Rule, q)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	sentence, err := rule.Sentence(g.Rule)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	description := sentence
	if g.Description != nil && *g.Description != "" {
		description = *g.Description + "\n\n" + sentence
	}

	expression := mo.None[string]()
	switch expr, err := rule.Expression(g.Rule); {
	case err == nil:
		expression = mo.Some(expr)
	case !errors.Is(err, rule.ErrUnsupported):
		h.writeError(w, r, err)
		return nil, false
	}

	feed := schedule.NewFeed(g.Name, h.now())
	feed.Add(g.Slug, g.Name, description, expression, occs...)
	return feed, true
}

// GatheringICS handles GET /api/v1/gatherings/{id}/calendar.ics
func (h *Handlers) GatheringICS(w http.ResponseWriter, r *http.Request) {
	feed, ok := h.gatheringFeed(w, r)
	if !ok {
		return
	}
	h.writeFeed(w, r, "text/calendar; charset=utf-8", feed.EncodeICS)
}

// GatheringXCal handles GET /api/v1/gatherings/{id}/calendar.xml
func (h *Handlers) GatheringXCal(w http.ResponseWriter, r *http.Request) {
	feed, ok := h.gatheringFeed(w, r)
	if !ok {
		return
	}
	h.writeFeed(w, r, "application/calendar+xml; charset=utf-8", feed.EncodeXCal)
}

// writeFeed encodes into a buffer first so an encoding failure can still be
// reported as a JSON error.
func (h *Handlers) writeFeed(w http.ResponseWriter, r *http.Request, contentType string, encode func(io.Writer) error) {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// Schedule
// =============================================================================

type scheduleEntry struct {
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	Sentence    string            `json:"sentence,omitempty"`
	Expression  *string           `json:"expression,omitempty"`
	Occurrences []rule.Occurrence `json:"occurrences,omitempty"`
	Error       string            `json:"error,omitempty"`
}

type scheduleResponse struct {
	Year          int                `json:"year"`
	Entries       []scheduleEntry    `json:"entries"`
	Holidays      []calendar.Holiday `json:"holidays"`
	HolidaysError string             `json:"holidays_error,omitempty"`
}

// buildSchedule resolves every stored gathering for the year in the query
// string, defaulting to the current year.
func (h *Handlers) buildSchedule(w http.ResponseWriter, r *http.Request) (*schedule.Schedule, bool) {
	year := mo.None[int]()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := parseYear(s)
		if err != nil {
			WriteBadRequest(w, err.Error())
			return nil, false
		}
		year = mo.Some(y)
	}

	gatherings, err := h.db.ListGatherings(r.Context(), database.ListOptions{})
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	items := make([]schedule.Item, 0, len(gatherings))
	for _, g := range gatherings {
		item := schedule.Item{Key: g.Slug, Name: g.Name, Rule: g.Rule}
		if g.Description != nil {
			item.Description = *g.Description
		}
		items = append(items, item)
	}

	s, err := schedule.New(items, year,
		schedule.WithClock(h.now),
		schedule.WithLocation(h.cfg.Location()),
		schedule.WithHolidays(h.cfg.Region()),
		schedule.WithExpander(h.expander),
	)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

// GetSchedule handles GET /api/v1/schedule?year=YYYY
func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	s, ok := h.buildSchedule(w, r)
	if !ok {
		return
	}

	resp := scheduleResponse{
		Year:    s.Year,
		Entries: make([]scheduleEntry, 0, len(s.Entries)),
	}
	holidays, err := s.Holidays.Get()
	if err != nil {
		logger.Warn(r.Context(), "holidays left out of schedule", "year", s.Year, "error", err)
		resp.HolidaysError = err.Error()
	}
	resp.Holidays = holidays
	for _, result := range s.Entries {
		entry, err := result.Get()
		if err != nil {
			resp.Entries = append(resp.Entries, scheduleEntry{Error: err.Error()})
			continue
		}
		se := scheduleEntry{
			Slug:        entry.Item.Key,
			Name:        entry.Item.Name,
			Sentence:    entry.Sentence,
			Occurrences: entry.Occurrences,
		}
		if expr, ok := entry.Expression.Get(); ok {
			se.Expression = &expr
		}
		resp.Entries = append(resp.Entries, se)
	}
	if resp.Holidays == nil {
		resp.Holidays = []calendar.Holiday{}
	}
	WriteSuccess(w, resp)
}

// GetScheduleICS handles GET /api/v1/schedule.ics?year=YYYY
func (h *Handlers) GetScheduleICS(w http.ResponseWriter, r *http.Request) {
	s, ok := h.buildSchedule(w, r)
	if !ok {
		return
	}
	for _, err := range s.Errors() {
		logger.Warn(r.Context(), "gathering left out of schedule feed", "error", err)
	}

	feed := s.Feed(fmt.Sprintf("Gatherings %d", s.Year), h.now())
	h.writeFeed(w, r, "text/calendar; charset=utf-8", feed.EncodeICS)
}
