package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/BTreeMap/Pathfinder/internal/flow"
	"github.com/BTreeMap/Pathfinder/internal/models"
	"github.com/BTreeMap/Pathfinder/internal/store"
)

// sessionResponse is the JSON view of one session.
type sessionResponse struct {
	ID string `json:"id"`
	flow.Snapshot
}

type fieldUpdateRequest struct {
	Value string `json:"value"`
}

func sessionPath(id string) string {
	return "/s/" + url.PathEscape(id)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]int{"sessions": s.sessions.Len()}))
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.notFoundHandler: no route", "method", r.Method, "path", r.URL.Path)
	if isAPIRequest(r) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
		return
	}
	http.NotFound(w, r)
}

// Browser handlers. Every POST answers with a redirect to the session page so a reload never
// resubmits.

func (s *Server) newSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	slog.Info("Server.newSessionHandler: session started", "session_id", sess.ID)
	http.Redirect(w, r, sessionPath(sess.ID), http.StatusSeeOther)
}

// pageSession resolves the session of a browser request. Unknown or expired sessions are sent
// back to "/" to start over.
func (s *Server) pageSession(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	id := mux.Vars(r)["id"]
	sess, err := s.sessions.Get(id)
	if err != nil {
		slog.Debug("Server.pageSession: unknown session, starting over", "session_id", id)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	return sess, true
}

func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	view := newPageView(sess.ID, sess.Controller.Snapshot())
	if err := s.pages.renderPage(w, http.StatusOK, view); err != nil {
		slog.Error("Server.pageHandler: render failed", "error", err, "session_id", sess.ID)
		s.pages.renderFallback(w, err.Error())
	}
}

func (s *Server) submitFormHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	if !s.applyPostedForm(w, r, sess, true) {
		return
	}
	if err := sess.Controller.Submit(r.Context()); err != nil {
		slog.Debug("Server.submitFormHandler: submit finished with error", "session_id", sess.ID, "error", err)
	}
	http.Redirect(w, r, sessionPath(sess.ID), http.StatusSeeOther)
}

// retryHandler submits again. The Retry button posts the page form, so edits made after the
// failure are applied first; a bare POST retries the stored form.
func (s *Server) retryHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	if !s.applyPostedForm(w, r, sess, false) {
		return
	}
	if err := sess.Controller.Submit(r.Context()); err != nil {
		slog.Debug("Server.retryHandler: retry finished with error", "session_id", sess.ID, "error", err)
	}
	http.Redirect(w, r, sessionPath(sess.ID), http.StatusSeeOther)
}

// applyPostedForm copies the posted form fields into the session. Unless always is set, a post
// without any form field leaves the stored form as it is. It reports false when it already
// answered the request.
func (s *Server) applyPostedForm(w http.ResponseWriter, r *http.Request, sess *store.Session, always bool) bool {
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.applyPostedForm: failed to parse form", "error", err)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return false
	}

	posted := always
	var form models.FormInput
	for _, name := range models.FormFields {
		if _, ok := r.PostForm[name]; ok {
			posted = true
		}
		_ = form.Set(name, r.PostFormValue(name))
	}
	if !posted {
		return true
	}
	if err := sess.Controller.SetForm(form); err != nil {
		slog.Debug("Server.applyPostedForm: form locked", "session_id", sess.ID)
		http.Redirect(w, r, sessionPath(sess.ID), http.StatusSeeOther)
		return false
	}
	return true
}

func (s *Server) togglePageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	phaseID := mux.Vars(r)["phaseID"]
	sess.Controller.TogglePhase(phaseID)
	target := url.URL{Path: "/s/" + sess.ID, Fragment: phaseID}
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

// JSON handlers.

func (s *Server) apiSession(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	id := mux.Vars(r)["id"]
	sess, err := s.sessions.Get(id)
	if err != nil {
		slog.Debug("Server.apiSession: session lookup failed", "session_id", id, "error", err)
		writeJSONResponse(w, statusForError(err), models.Error("Session not found"))
		return nil, false
	}
	return sess, true
}

// decodeBody decodes an optional JSON body. It reports false after writing a 400 response.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) (present, ok bool) {
	if r.Body == nil {
		return false, true
	}
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case errors.Is(err, io.EOF):
		return false, true
	case err != nil:
		slog.Warn("Server.decodeBody: failed to decode JSON", "error", err, "path", r.URL.Path)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return false, false
	}
	return true, true
}

// generateRoadmapHandler runs one generation without a session.
func (s *Server) generateRoadmapHandler(w http.ResponseWriter, r *http.Request) {
	var form models.FormInput
	present, ok := decodeBody(w, r, &form)
	if !ok {
		return
	}
	if !present {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing request body"))
		return
	}
	if err := form.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	roadmap, err := flow.GenerateRoadmap(r.Context(), s.gen, form)
	if err != nil {
		slog.Warn("Server.generateRoadmapHandler: generation failed", "error", err)
		writeJSONResponse(w, statusForError(err), models.Error(flow.FailureMessage(err)))
		return
	}
	slog.Info("Server.generateRoadmapHandler: roadmap generated", "title", roadmap.Title, "phases", len(roadmap.Phases))
	writeJSONResponse(w, http.StatusOK, models.Success(roadmap))
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSONResponse(w, http.StatusCreated, models.Success(sessionResponse{ID: sess.ID, Snapshot: sess.Controller.Snapshot()}))
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sessionResponse{ID: sess.ID, Snapshot: sess.Controller.Snapshot()}))
}

func (s *Server) updateFieldHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	var req fieldUpdateRequest
	if _, ok := decodeBody(w, r, &req); !ok {
		return
	}
	name := mux.Vars(r)["name"]
	if err := sess.Controller.UpdateField(name, req.Value); err != nil {
		slog.Debug("Server.updateFieldHandler: update rejected", "session_id", sess.ID, "field", name, "error", err)
		writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sessionResponse{ID: sess.ID, Snapshot: sess.Controller.Snapshot()}))
}

// submitSessionHandler submits the session form. A JSON body, when present, replaces the form
// first.
func (s *Server) submitSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	var form models.FormInput
	present, ok := decodeBody(w, r, &form)
	if !ok {
		return
	}
	if present {
		if err := sess.Controller.SetForm(form); err != nil {
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
	}

	err := sess.Controller.Submit(r.Context())
	snap := sess.Controller.Snapshot()
	result := sessionResponse{ID: sess.ID, Snapshot: snap}
	if err != nil {
		msg := snap.UI.ErrorMessage
		if errors.Is(err, flow.ErrSubmitInProgress) || msg == "" {
			msg = err.Error()
		}
		writeJSONResponse(w, statusForError(err), models.ErrorWithResult(msg, result))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

func (s *Server) togglePhaseHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	phaseID := mux.Vars(r)["phaseID"]
	expanded := sess.Controller.TogglePhase(phaseID)
	msg := "Phase collapsed"
	if expanded {
		msg = "Phase expanded"
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(msg, map[string]interface{}{
		"phaseId":  phaseID,
		"expanded": expanded,
	}))
}
