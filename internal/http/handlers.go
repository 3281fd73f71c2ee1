package http

import (
	"net/http"

	"marketplace/candidates/internal/apperr"
)

var errCompleteModeDisabled = apperr.Validation("Complete mode is disabled", nil)

// Candidates

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	filters, err := s.parseCandidateFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if filters.IncludeAllData {
		if !s.cfg.CompleteModeEnabled {
			s.writeError(w, r, errCompleteModeDisabled)
			return
		}
		result, err := s.services.Candidates.ListComplete(r.Context(), filters)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	result, err := s.services.Candidates.List(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Stats

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.services.Stats.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBranchDistribution(w http.ResponseWriter, r *http.Request) {
	distribution, err := s.services.Stats.BranchDistribution(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, distribution)
}

// Students

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := studentIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if completeRequested(r.URL.Query()) {
		if !s.cfg.CompleteModeEnabled {
			s.writeError(w, r, errCompleteModeDisabled)
			return
		}
		record, err := s.services.Profiles.GetComplete(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
		return
	}

	profile, err := s.services.Profiles.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Views

func (s *Server) handleLogView(w http.ResponseWriter, r *http.Request) {
	if err := s.allowView(r); err != nil {
		s.metrics.ObserveView("rate_limited")
		s.writeError(w, r, err)
		return
	}
	candidateID, err := candidateIDParam(r)
	if err != nil {
		s.metrics.ObserveView("rejected")
		s.writeError(w, r, err)
		return
	}
	viewer, err := s.decodeViewer(w, r)
	if err != nil {
		s.metrics.ObserveView("rejected")
		s.writeError(w, r, err)
		return
	}

	result, err := s.services.Views.LogView(r.Context(), candidateID, viewer)
	if err != nil {
		if apperr.IsNotFound(err) {
			s.metrics.ObserveView("rejected")
		} else {
			s.metrics.ObserveView("failed")
		}
		s.writeError(w, r, err)
		return
	}
	s.metrics.ObserveView("logged")
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleCandidateViewers(w http.ResponseWriter, r *http.Request) {
	candidateID, err := candidateIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filters, err := s.parseViewerFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.services.Views.CandidateViewers(r.Context(), candidateID, filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	email, err := s.emailParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filters, err := s.parseHistoryFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.services.Views.UserHistory(r.Context(), email, filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	email, err := s.emailParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.services.Views.UserStats(r.Context(), email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
