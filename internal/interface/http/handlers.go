package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/application/command"
	"github.com/audira-hub/audira-progress-hub/internal/application/query"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot handles the root endpoint.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "audira-progress-hub",
		"version": "1.0.0",
		"status":  "running",
	})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{Healthy: true, Ready: true}
	if s.deps.HealthChecker != nil {
		status = s.deps.HealthChecker.Check(r.Context())
	}

	httpStatus := http.StatusOK
	if !status.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"healthy": status.Healthy,
		"ready":   status.Ready,
		"message": status.Message,
		"uptime":  s.Uptime().String(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles readiness probe requests.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSONError(w, http.StatusServiceUnavailable, "not_ready", status.Message)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles liveness probe requests.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS RECORDING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type recordCompletionRequest struct {
	UserID    int64      `json:"user_id"`
	AudibleID int64      `json:"audible_id"`
	TopicID   int64      `json:"topic_id"`
	Completed *bool      `json:"completed"`
	Timestamp *time.Time `json:"timestamp"`
}

// handleRecordCompletion records an audible completion for a user.
func (s *Server) handleRecordCompletion(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordCompletionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Completion recording is not available")
		return
	}

	var req recordCompletionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	cmd := command.RecordCompletionCommand{
		UserID:        req.UserID,
		AudibleID:     req.AudibleID,
		TopicID:       req.TopicID,
		Completed:     completed,
		Timestamp:     timestampOrNow(req.Timestamp),
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RecordCompletionHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.respondDomainError(w, r, err, "record completion failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type recordReviewRequest struct {
	UserID    int64      `json:"user_id"`
	CardID    int64      `json:"card_id"`
	Timestamp *time.Time `json:"timestamp"`
}

// handleRecordReview records a flashcard review for a user.
func (s *Server) handleRecordReview(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordReviewHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Review recording is not available")
		return
	}

	var req recordReviewRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.RecordFlashcardReviewCommand{
		UserID:        req.UserID,
		CardID:        req.CardID,
		Timestamp:     timestampOrNow(req.Timestamp),
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RecordReviewHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.respondDomainError(w, r, err, "record review failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type recordQuizScoreRequest struct {
	UserID    int64      `json:"user_id"`
	TopicID   int64      `json:"topic_id"`
	Score     int        `json:"score"`
	Total     int        `json:"total"`
	Timestamp *time.Time `json:"timestamp"`
}

// handleRecordQuizScore records a quiz attempt and credits XP.
func (s *Server) handleRecordQuizScore(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordQuizScoreHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Quiz recording is not available")
		return
	}

	var req recordQuizScoreRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.RecordQuizScoreCommand{
		UserID:        req.UserID,
		TopicID:       req.TopicID,
		Score:         req.Score,
		Total:         req.Total,
		Timestamp:     timestampOrNow(req.Timestamp),
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RecordQuizScoreHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.respondDomainError(w, r, err, "record quiz score failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// USER PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetUserStats returns the aggregated stats dashboard for a user.
func (s *Server) handleGetUserStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetUserStatsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "User stats are not available")
		return
	}

	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	q := query.GetUserStatsQuery{
		UserID:          userID,
		RecentQuizLimit: getQueryParamInt(r, "recent_quizzes", 0),
	}

	result, err := s.deps.GetUserStatsHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondDomainError(w, r, err, "get user stats failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetCompletion returns completion percentages for a user.
//
// Denominators come from the caller because the catalog lives in
// another service: ?total_audibles=120&topic=10:40&topic=20:30.
func (s *Server) handleGetCompletion(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetCompletionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Completion stats are not available")
		return
	}

	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	topics, err := parseTopicDenominators(r.URL.Query()["topic"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	q := query.GetCompletionQuery{
		UserID:        userID,
		TotalAudibles: getQueryParamInt(r, "total_audibles", 0),
		Topics:        topics,
	}

	result, err := s.deps.GetCompletionHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondDomainError(w, r, err, "get completion failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetUserRank returns a user's position on a leaderboard.
func (s *Server) handleGetUserRank(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetUserRankHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Rank lookup is not available")
		return
	}

	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	q := query.GetUserRankQuery{
		UserID: userID,
		Board:  r.PathValue("board"),
	}

	result, err := s.deps.GetUserRankHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondDomainError(w, r, err, "get user rank failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard returns the top entries of a leaderboard.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboards are not available")
		return
	}

	q := query.GetLeaderboardQuery{
		Board: r.PathValue("board"),
		Limit: getQueryParamInt(r, "limit", 10),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondDomainError(w, r, err, "get leaderboard failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON: "+err.Error())
		return false
	}
	return true
}

// pathID parses a positive int64 path parameter.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_path_parameter", "Path parameter '"+name+"' must be a positive integer")
		return 0, false
	}
	return id, true
}

// respondDomainError maps domain errors to HTTP status codes.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err), shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsExternalService(err):
		s.logger.Error(logMsg, logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "A backing service is temporarily unavailable")
	default:
		s.logger.Error(logMsg, logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}

// timestampOrNow defaults an optional request timestamp to the current time.
func timestampOrNow(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// parseTopicDenominators parses "topicID:totalAudibles" pairs.
func parseTopicDenominators(raw []string) ([]query.TopicDenominator, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	topics := make([]query.TopicDenominator, 0, len(raw))
	for _, pair := range raw {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, shared.NewDomainError("http", "parse_topics", shared.ErrInvalidInput, "topic parameter must look like '<topic_id>:<total_audibles>'")
		}

		topicID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, shared.NewDomainError("http", "parse_topics", shared.ErrInvalidInput, "topic id must be an integer")
		}

		total, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, shared.NewDomainError("http", "parse_topics", shared.ErrInvalidInput, "topic total must be an integer")
		}

		topics = append(topics, query.TopicDenominator{TopicID: topicID, TotalAudibles: total})
	}
	return topics, nil
}
