package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audira-hub/audira-progress-hub/internal/application/command"
	"github.com/audira-hub/audira-progress-hub/internal/application/query"
	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/pkg/logger"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type factKey struct {
	user shared.UserID
	item int64
}

type memFactRepo struct {
	completions map[factKey]*progress.CompletionRecord
	reviews     map[factKey]*progress.FlashcardReview
	quizzes     []*progress.QuizScore
}

func newMemFactRepo() *memFactRepo {
	return &memFactRepo{
		completions: make(map[factKey]*progress.CompletionRecord),
		reviews:     make(map[factKey]*progress.FlashcardReview),
	}
}

func (r *memFactRepo) UpsertCompletion(_ context.Context, rec *progress.CompletionRecord) (bool, error) {
	key := factKey{rec.UserID, rec.AudibleID.Int64()}
	prev, existed := r.completions[key]
	became := rec.IsCompleted && (!existed || !prev.IsCompleted)
	cp := *rec
	r.completions[key] = &cp
	return became, nil
}

func (r *memFactRepo) UpsertReview(_ context.Context, review *progress.FlashcardReview) error {
	cp := *review
	r.reviews[factKey{review.UserID, review.CardID.Int64()}] = &cp
	return nil
}

func (r *memFactRepo) AppendQuizScore(_ context.Context, score *progress.QuizScore) error {
	cp := *score
	cp.ID = int64(len(r.quizzes) + 1)
	r.quizzes = append(r.quizzes, &cp)
	score.ID = cp.ID
	return nil
}

func (r *memFactRepo) CountCompleted(_ context.Context, userID shared.UserID) (int, error) {
	n := 0
	for key, rec := range r.completions {
		if key.user == userID && rec.IsCompleted {
			n++
		}
	}
	return n, nil
}

func (r *memFactRepo) CountCompletedInTopic(_ context.Context, userID shared.UserID, topicID shared.TopicID) (int, error) {
	n := 0
	for key, rec := range r.completions {
		if key.user == userID && rec.IsCompleted && rec.TopicID == topicID {
			n++
		}
	}
	return n, nil
}

func (r *memFactRepo) CountReviews(_ context.Context, userID shared.UserID) (int, error) {
	n := 0
	for key := range r.reviews {
		if key.user == userID {
			n++
		}
	}
	return n, nil
}

func (r *memFactRepo) QuizStats(_ context.Context, userID shared.UserID) (int, shared.Percentage, error) {
	count := 0
	best := shared.Percentage(0)
	for _, q := range r.quizzes {
		if q.UserID != userID {
			continue
		}
		count++
		if p := q.Percent(); p > best {
			best = p
		}
	}
	return count, best, nil
}

func (r *memFactRepo) RecentQuizScores(_ context.Context, userID shared.UserID, limit int) ([]*progress.QuizScore, error) {
	var out []*progress.QuizScore
	for _, q := range r.quizzes {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memStreakRepo struct {
	streaks map[shared.UserID]*progress.Streak
}

func newMemStreakRepo() *memStreakRepo {
	return &memStreakRepo{streaks: make(map[shared.UserID]*progress.Streak)}
}

func (r *memStreakRepo) GetStreak(_ context.Context, userID shared.UserID) (*progress.Streak, error) {
	s, ok := r.streaks[userID]
	if !ok {
		return nil, shared.ErrStreakNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memStreakRepo) CreateStreak(_ context.Context, streak *progress.Streak) error {
	if _, ok := r.streaks[streak.UserID]; ok {
		return shared.ErrAlreadyExists
	}
	cp := *streak
	r.streaks[streak.UserID] = &cp
	return nil
}

func (r *memStreakRepo) UpdateStreak(_ context.Context, streak *progress.Streak) error {
	cp := *streak
	cp.Version++
	r.streaks[streak.UserID] = &cp
	streak.Version = cp.Version
	return nil
}

type memAchievementRepo struct {
	ledgers map[shared.UserID]*progress.Achievement
}

func newMemAchievementRepo() *memAchievementRepo {
	return &memAchievementRepo{ledgers: make(map[shared.UserID]*progress.Achievement)}
}

func (r *memAchievementRepo) GetAchievement(_ context.Context, userID shared.UserID) (*progress.Achievement, error) {
	a, ok := r.ledgers[userID]
	if !ok {
		return nil, shared.ErrAchievementNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAchievementRepo) CreateAchievement(_ context.Context, achievement *progress.Achievement) error {
	if _, ok := r.ledgers[achievement.UserID]; ok {
		return shared.ErrAlreadyExists
	}
	cp := *achievement
	r.ledgers[achievement.UserID] = &cp
	return nil
}

func (r *memAchievementRepo) UpdateAchievement(_ context.Context, achievement *progress.Achievement) error {
	cp := *achievement
	cp.Version++
	r.ledgers[achievement.UserID] = &cp
	achievement.Version = cp.Version
	return nil
}

type memLeaderboardRepo struct {
	byXP []leaderboard.Entry
}

func (r *memLeaderboardRepo) TopByExperience(_ context.Context, limit int) ([]leaderboard.Entry, error) {
	if limit > len(r.byXP) {
		limit = len(r.byXP)
	}
	return r.byXP[:limit], nil
}

func (r *memLeaderboardRepo) TopByStreak(_ context.Context, limit int) ([]leaderboard.Entry, error) {
	return nil, nil
}

func (r *memLeaderboardRepo) UserRank(_ context.Context, board leaderboard.Board, userID shared.UserID) (leaderboard.RankInfo, error) {
	for _, e := range r.byXP {
		if e.UserID == userID {
			return leaderboard.RankInfo{
				UserID:     userID,
				Board:      board,
				Rank:       e.Rank,
				Score:      e.Score,
				TotalUsers: len(r.byXP),
			}, nil
		}
	}
	return leaderboard.RankInfo{
		UserID:     userID,
		Board:      board,
		Rank:       shared.Unranked,
		TotalUsers: len(r.byXP),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Test server assembly
// ─────────────────────────────────────────────────────────────────────────────

type stubHealthChecker struct {
	status HealthStatus
}

func (c stubHealthChecker) Check(context.Context) HealthStatus { return c.status }

func testServer(t *testing.T) (*Server, *memFactRepo) {
	t.Helper()

	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})

	factRepo := newMemFactRepo()
	streakRepo := newMemStreakRepo()
	achievementRepo := newMemAchievementRepo()
	lbRepo := &memLeaderboardRepo{byXP: []leaderboard.Entry{
		{UserID: 1, Score: 3000, Rank: 1},
		{UserID: 2, Score: 1500, Rank: 2},
		{UserID: 3, Score: 200, Rank: 3},
	}}

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	srv := NewServer(cfg, Dependencies{
		RecordCompletionHandler: command.NewRecordCompletionHandler(factRepo, streakRepo, nil, log),
		RecordReviewHandler:     command.NewRecordFlashcardReviewHandler(factRepo, streakRepo, nil, log),
		RecordQuizScoreHandler:  command.NewRecordQuizScoreHandler(factRepo, streakRepo, achievementRepo, nil, log),
		GetUserStatsHandler:     query.NewGetUserStatsHandler(factRepo, streakRepo, achievementRepo),
		GetCompletionHandler:    query.NewGetCompletionHandler(factRepo),
		GetLeaderboardHandler:   query.NewGetLeaderboardHandler(lbRepo, nil, log),
		GetUserRankHandler:      query.NewGetUserRankHandler(lbRepo, nil, log),
		Logger:                  log,
		HealthChecker:           stubHealthChecker{HealthStatus{Healthy: true, Ready: true}},
	})

	return srv, factRepo
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func dataField(t *testing.T, resp JSONResponse, key string) interface{} {
	t.Helper()

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	return data[key]
}

// ─────────────────────────────────────────────────────────────────────────────
// Health & status
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_HealthEndpoints(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/health", "/healthz", "/ready", "/live", "/"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestServer_HealthReportsUnavailableDependencies(t *testing.T) {
	srv, _ := testServer(t)
	srv.deps.HealthChecker = stubHealthChecker{HealthStatus{
		Healthy: false,
		Ready:   false,
		Message: "postgres unreachable",
	}}

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_UnknownPathReturns404(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RequestIDPropagated(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-abc-123", rec.Header().Get("X-Request-ID"))
}

func TestServer_GeneratesRequestID(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/live", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress recording
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_RecordCompletion(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/progress/completions", map[string]interface{}{
		"user_id":    int64(7),
		"audible_id": int64(101),
		"topic_id":   int64(10),
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, true, dataField(t, resp, "BecameCompleted"))
	assert.Equal(t, float64(1), dataField(t, resp, "CurrentStreak"))
}

func TestServer_RecordCompletion_RepeatIsNotNewCompletion(t *testing.T) {
	srv, _ := testServer(t)

	body := map[string]interface{}{
		"user_id":    int64(7),
		"audible_id": int64(101),
		"topic_id":   int64(10),
	}

	doJSON(t, srv, http.MethodPost, "/api/v1/progress/completions", body)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/progress/completions", body)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, false, dataField(t, resp, "BecameCompleted"))
}

func TestServer_RecordCompletion_InvalidBody(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/progress/completions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_body", resp.Error.Code)
}

func TestServer_RecordCompletion_ValidationFailure(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/progress/completions", map[string]interface{}{
		"user_id":    int64(0),
		"audible_id": int64(101),
		"topic_id":   int64(10),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation_error", resp.Error.Code)
}

func TestServer_RecordReview(t *testing.T) {
	srv, repo := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/progress/reviews", map[string]interface{}{
		"user_id": int64(7),
		"card_id": int64(55),
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, repo.reviews, 1)
}

func TestServer_RecordQuizScore(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/progress/quizzes", map[string]interface{}{
		"user_id":  int64(7),
		"topic_id": int64(10),
		"score":    9,
		"total":    10,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeResponse(t, rec)
	awarded, ok := dataField(t, resp, "AwardedXP").(float64)
	require.True(t, ok)
	assert.Greater(t, awarded, float64(0))
}

func TestServer_RecordQuizScore_ScoreAboveTotal(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/progress/quizzes", map[string]interface{}{
		"user_id":  int64(7),
		"topic_id": int64(10),
		"score":    11,
		"total":    10,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_GetUserStats(t *testing.T) {
	srv, _ := testServer(t)

	doJSON(t, srv, http.MethodPost, "/api/v1/progress/quizzes", map[string]interface{}{
		"user_id":  int64(7),
		"topic_id": int64(10),
		"score":    8,
		"total":    10,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/users/7/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	assert.Equal(t, float64(7), dataField(t, resp, "user_id"))
	assert.Equal(t, float64(1), dataField(t, resp, "quiz_count"))
	assert.Equal(t, float64(80), dataField(t, resp, "best_quiz_percent"))
}

func TestServer_GetUserStats_BadID(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/api/v1/users/abc/stats", "/api/v1/users/-1/stats", "/api/v1/users/0/stats"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "path %s", path)
	}
}

func TestServer_GetCompletion(t *testing.T) {
	srv, _ := testServer(t)

	doJSON(t, srv, http.MethodPost, "/api/v1/progress/completions", map[string]interface{}{
		"user_id":    int64(7),
		"audible_id": int64(101),
		"topic_id":   int64(10),
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/users/7/completion?total_audibles=4&topic=10:2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	assert.Equal(t, float64(25), dataField(t, resp, "overall_percent"))

	topics, ok := dataField(t, resp, "topics").([]interface{})
	require.True(t, ok)
	require.Len(t, topics, 1)
	topic := topics[0].(map[string]interface{})
	assert.Equal(t, float64(50), topic["percent"])
}

func TestServer_GetCompletion_MalformedTopicParam(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/users/7/completion?topic=banana", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GetLeaderboard(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/leaderboard/xp?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	entries, ok := dataField(t, resp, "entries").([]interface{})
	require.True(t, ok)
	assert.Len(t, entries, 2)
}

func TestServer_GetLeaderboard_UnknownBoard(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/leaderboard/karma", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GetUserRank(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/users/2/rank/xp", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	assert.Equal(t, float64(2), dataField(t, resp, "rank"))
	assert.Equal(t, float64(3), dataField(t, resp, "total_users"))
}

func TestServer_GetUserRank_Unranked(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/users/99/rank/xp", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Equal(t, float64(0), dataField(t, resp, "rank"))
	assert.Equal(t, float64(0), dataField(t, resp, "percentile"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Wiring guards
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_MissingHandlerReturns501(t *testing.T) {
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})

	srv := NewServer(DefaultConfig(), Dependencies{Logger: log})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/progress/completions"},
		{http.MethodPost, "/api/v1/progress/reviews"},
		{http.MethodPost, "/api/v1/progress/quizzes"},
		{http.MethodGet, "/api/v1/users/1/stats"},
		{http.MethodGet, "/api/v1/users/1/completion"},
		{http.MethodGet, "/api/v1/users/1/rank/xp"},
		{http.MethodGet, "/api/v1/leaderboard/xp"},
	}

	for _, tc := range cases {
		rec := doJSON(t, srv, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotImplemented, rec.Code, fmt.Sprintf("%s %s", tc.method, tc.path))
	}
}

func TestServer_APIKeyGuardsAPIRoutes(t *testing.T) {
	srv, _ := testServer(t)
	srv.config.APIKey = "sekrit"
	srv.httpServer.Handler = srv.buildMiddlewareChain(srv.router)

	// Probes stay open.
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// API routes require the key.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/leaderboard/xp", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/xp", nil)
	req.Header.Set("X-API-Key", "sekrit")
	authed := httptest.NewRecorder()
	srv.Handler().ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code)
}

func TestServer_RateLimiting(t *testing.T) {
	srv, _ := testServer(t)
	srv.rateLimiter = newRateLimiter(2, time.Minute)
	// Re-wrap the handler so the limiter takes effect.
	srv.httpServer.Handler = srv.buildMiddlewareChain(srv.router)

	doJSON(t, srv, http.MethodGet, "/live", nil)
	doJSON(t, srv, http.MethodGet, "/live", nil)
	rec := doJSON(t, srv, http.MethodGet, "/live", nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
