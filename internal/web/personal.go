package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appLog "coursecal/internal/log"
	"coursecal/internal/model"
	"coursecal/internal/source"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", source.ErrInvalidRow, err)
	}
	return nil
}

// handleListPersonal lists stored personal events; ?start=&end= (dates,
// inclusive) narrows the list to events starting in that range.
func (s *Server) handleListPersonal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("start") && !q.Has("end") {
		writeJSON(w, http.StatusOK, s.personal.List())
		return
	}

	start, err := time.ParseInLocation(dateLayout, q.Get("start"), s.loc)
	if err != nil {
		writeDomainError(w, fmt.Errorf("%w: start %q", errBadQuery, q.Get("start")))
		return
	}
	end, err := time.ParseInLocation(dateLayout, q.Get("end"), s.loc)
	if err != nil {
		writeDomainError(w, fmt.Errorf("%w: end %q", errBadQuery, q.Get("end")))
		return
	}
	win, err := model.NewViewWindow(start, end.AddDate(0, 0, 1).Add(-time.Millisecond), model.GranularityAgenda)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.personal.ListInRange(win.Start, win.End))
}

func (s *Server) handleCreatePersonal(w http.ResponseWriter, r *http.Request) {
	var ev model.EventTemplate
	if err := decodeBody(w, r, &ev); err != nil {
		writeDomainError(w, err)
		return
	}
	created, err := s.personal.Create(ev)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	appLog.Info("personal event created", "id", created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetPersonal(w http.ResponseWriter, r *http.Request) {
	ev, err := s.personal.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleUpdatePersonal(w http.ResponseWriter, r *http.Request) {
	var patch source.PersonalPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeDomainError(w, err)
		return
	}
	ev, err := s.personal.Update(r.PathValue("id"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	appLog.Info("personal event updated", "id", ev.ID)
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleDeletePersonal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.personal.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}
	appLog.Info("personal event deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
