package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"coursecal/internal/grade"
	"coursecal/internal/ics"
	"coursecal/internal/model"
	"coursecal/internal/timeline"
)

const dateLayout = "2006-01-02"

var errBadQuery = errors.New("bad query")

// viewQuery is the parsed form of the common timeline query parameters:
//
//	view=month|week|day|agenda   granularity (default from config)
//	date=YYYY-MM-DD              reference date (default today)
//	step=N                       page N views forward (negative: back)
//	start=YYYY-MM-DD&end=...     explicit window, overrides view/date
//	categories=class,exam        enabled categories (default from config)
//	hide_cancelled=true|false    (default from config)
type viewQuery struct {
	granularity   model.Granularity
	ref           time.Time
	window        *model.ViewWindow
	filters       timeline.CategoryConfig
	hideCancelled bool
}

func (s *Server) parseViewQuery(q url.Values) (viewQuery, error) {
	vq := viewQuery{
		filters:       s.cfg.Filters,
		hideCancelled: s.cfg.HideCancelled,
		ref:           s.now().In(s.loc),
	}

	view := q.Get("view")
	if view == "" {
		view = s.cfg.DefaultView
	}
	g, err := model.ParseGranularity(view)
	if err != nil {
		return vq, err
	}
	vq.granularity = g

	if v := q.Get("date"); v != "" {
		d, err := time.ParseInLocation(dateLayout, v, s.loc)
		if err != nil {
			return vq, fmt.Errorf("%w: date %q", errBadQuery, v)
		}
		vq.ref = d
	}
	if v := q.Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return vq, fmt.Errorf("%w: step %q", errBadQuery, v)
		}
		vq.ref = timeline.Step(vq.ref, g, n)
	}

	if q.Has("start") || q.Has("end") {
		start, err := time.ParseInLocation(dateLayout, q.Get("start"), s.loc)
		if err != nil {
			return vq, fmt.Errorf("%w: start %q", errBadQuery, q.Get("start"))
		}
		end, err := time.ParseInLocation(dateLayout, q.Get("end"), s.loc)
		if err != nil {
			return vq, fmt.Errorf("%w: end %q", errBadQuery, q.Get("end"))
		}
		win, err := model.NewViewWindow(start, timeline.EndOfDay(end), g)
		if err != nil {
			return vq, err
		}
		vq.window = &win
	}

	if q.Has("categories") {
		f, err := parseCategories(q.Get("categories"))
		if err != nil {
			return vq, err
		}
		vq.filters = f
	}
	if v := q.Get("hide_cancelled"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return vq, fmt.Errorf("%w: hide_cancelled %q", errBadQuery, v)
		}
		vq.hideCancelled = b
	}
	return vq, nil
}

func (s *Server) compose(vq viewQuery) (timeline.Result, error) {
	opts := s.options(vq.filters, vq.hideCancelled)
	if vq.window != nil {
		return timeline.Compose(s.sources(), *vq.window, opts)
	}
	return timeline.ComposeView(s.sources(), vq.ref, vq.granularity, opts)
}

func (s *Server) composeRequest(r *http.Request) (timeline.Result, error) {
	vq, err := s.parseViewQuery(r.URL.Query())
	if err != nil {
		return timeline.Result{}, err
	}
	return s.compose(vq)
}

// itemDTO flattens a TimelineItem for JSON clients.
type itemDTO struct {
	ID         string            `json:"id"`
	Kind       model.ItemKind    `json:"kind"`
	Category   model.Category    `json:"category"`
	Icon       string            `json:"icon"`
	Title      string            `json:"title"`
	Start      time.Time         `json:"start"`
	End        time.Time         `json:"end"`
	AllDay     bool              `json:"all_day"`
	CourseCode string            `json:"course_code,omitempty"`
	Location   string            `json:"location,omitempty"`
	Status     model.EventStatus `json:"status,omitempty"`
	Recurring  bool              `json:"recurring,omitempty"`
	Weight     *float64          `json:"weight,omitempty"`
}

func toDTO(it model.TimelineItem) itemDTO {
	d := itemDTO{
		ID:         it.ID(),
		Kind:       it.Kind,
		Category:   it.Category(),
		Icon:       it.Category().Meta().Icon,
		Title:      it.Title(),
		Start:      it.Start(),
		End:        it.End(),
		AllDay:     it.AllDay(),
		CourseCode: it.CourseCode(),
	}
	if o := it.Occurrence; o != nil {
		d.Location = o.Location
		d.Status = o.Status
		d.Recurring = o.Recurring
	}
	if a := it.Assessment; a != nil {
		w := a.Weight
		d.Weight = &w
	}
	return d
}

func toDTOs(items []model.TimelineItem) []itemDTO {
	out := make([]itemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toDTO(it))
	}
	return out
}

type timelineResponse struct {
	Window          model.ViewWindow `json:"window"`
	Timezone        string           `json:"timezone"`
	Items           []itemDTO        `json:"items"`
	Skipped         []string         `json:"skipped,omitempty"`
	Truncated       []string         `json:"truncated,omitempty"`
	MonthlyOverflow []string         `json:"monthly_overflow,omitempty"`
}

func (s *Server) timelineResponse(res timeline.Result) timelineResponse {
	return timelineResponse{
		Window:          res.Window,
		Timezone:        s.loc.String(),
		Items:           toDTOs(res.Items),
		Skipped:         res.Skipped,
		Truncated:       res.Truncated,
		MonthlyOverflow: res.MonthlyOverflow,
	}
}

// handleTimeline returns the merged, filtered timeline of one view.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	res, err := s.composeRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.timelineResponse(res))
}

type weekDTO struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	Items []itemDTO `json:"items"`
}

// handleWeeks groups one view into relative weeks anchored at the window
// start, or at ?anchor=YYYY-MM-DD.
func (s *Server) handleWeeks(w http.ResponseWriter, r *http.Request) {
	res, err := s.composeRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	anchor := res.Window.Start
	if v := r.URL.Query().Get("anchor"); v != "" {
		a, err := time.ParseInLocation(dateLayout, v, s.loc)
		if err != nil {
			writeDomainError(w, fmt.Errorf("%w: anchor %q", errBadQuery, v))
			return
		}
		anchor = a
	}

	buckets := timeline.Group(res.Items, &anchor)
	weeks := make([]weekDTO, 0, len(buckets))
	for _, b := range buckets {
		weeks = append(weeks, weekDTO{Index: b.Index, Start: b.Start, Items: toDTOs(b.Items)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window": res.Window,
		"anchor": anchor,
		"weeks":  weeks,
	})
}

type dayDTO struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
	Items []itemDTO `json:"items"`
}

// handleAgenda lists an agenda view day by day with relative headings.
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("view") {
		q.Set("view", model.GranularityAgenda.String())
	}
	vq, err := s.parseViewQuery(q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := s.compose(vq)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := s.now().In(s.loc)
	groups := timeline.DayGroups(res.Items, now)
	days := make([]dayDTO, 0, len(groups))
	for _, g := range groups {
		days = append(days, dayDTO{Date: g.Date, Label: g.Label, Items: toDTOs(g.Items)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window": res.Window,
		"days":   days,
	})
}

// handleExport serves one view as an iCalendar file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res, err := s.composeRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="coursecal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.Export(res.Items, s.now())))
}

type summaryDTO struct {
	model.GradeSummary
	Band    grade.Band `json:"band"`
	Passing bool       `json:"passing"`
}

func toSummaryDTO(sum model.GradeSummary) summaryDTO {
	d := grade.Display(sum)
	return summaryDTO{
		GradeSummary: d,
		Band:         grade.BandOf(d.WeightedGPA),
		Passing:      grade.Passing(d.WeightedGPA),
	}
}

// handleGrades returns the overall summary and one summary per course.
// ?course=CODE restricts both to a single course.
func (s *Server) handleGrades(w http.ResponseWriter, r *http.Request) {
	items := s.current().assessments
	if code := r.URL.Query().Get("course"); code != "" {
		scoped := make([]model.AssessmentItem, 0)
		for _, it := range items {
			if it.CourseCode == code {
				scoped = append(scoped, it)
			}
		}
		if len(scoped) == 0 {
			writeError(w, http.StatusNotFound, fmt.Sprintf("course %q not found", code))
			return
		}
		items = scoped
	}

	perCourse := grade.SummarizeByCourse(items)
	courses := make(map[string]summaryDTO, len(perCourse))
	for code, sum := range perCourse {
		courses[code] = toSummaryDTO(sum)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"overall": toSummaryDTO(grade.Summarize(items)),
		"courses": courses,
		"order":   grade.Courses(items),
	})
}

// handleDashboard combines today's agenda, upcoming deadlines bucketed by
// relative day and the overall grade.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := s.now().In(s.loc)
	days := parseIntDefault(r.URL.Query().Get("days"), s.cfg.UpcomingDays)
	if days <= 0 {
		days = s.cfg.UpcomingDays
	}

	today, err := timeline.ComposeView(s.sources(), now, model.GranularityDay, s.options(s.cfg.Filters, s.cfg.HideCancelled))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Overdue deadlines stay visible, so the window opens at the earliest
	// due date rather than now.
	d := s.current()
	win, err := model.NewViewWindow(dashboardStart(d.assessments, now), timeline.EndOfDay(now.AddDate(0, 0, days)), model.GranularityAgenda)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	deadlines := make([]model.TimelineItem, 0)
	for _, a := range d.assessments {
		if a.Submitted() {
			continue
		}
		if it, ok := model.DeadlineItem(a); ok && win.Contains(it.Start()) {
			deadlines = append(deadlines, it)
		}
	}
	timeline.Sort(deadlines)
	deadlines = timeline.Filter(deadlines, s.cfg.Filters)

	type groupDTO struct {
		Label timeline.RelativeLabel `json:"label"`
		Items []itemDTO              `json:"items"`
	}
	groups := timeline.RelativeGroups(deadlines, now)
	upcoming := make([]groupDTO, 0, len(groups))
	for _, g := range groups {
		upcoming = append(upcoming, groupDTO{Label: g.Label, Items: toDTOs(g.Items)})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"now":      now,
		"today":    toDTOs(today.Items),
		"upcoming": upcoming,
		"grades":   toSummaryDTO(grade.Summarize(d.assessments)),
		"data":     s.snapshotInfo(),
	})
}

func dashboardStart(items []model.AssessmentItem, now time.Time) time.Time {
	start := timeline.StartOfDay(now)
	for _, a := range items {
		if a.DueDate != nil && a.DueDate.Before(start) {
			start = *a.DueDate
		}
	}
	return start
}
