package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalabs/vidya/internal/knowledge"
	"github.com/vidyalabs/vidya/internal/log"
)

type fakeCounter struct {
	total    int64
	subjects []knowledge.SubjectCount
	err      error
}

func (f *fakeCounter) Count(context.Context) (int64, error) {
	return f.total, f.err
}

func (f *fakeCounter) CountBySubject(context.Context) ([]knowledge.SubjectCount, error) {
	return f.subjects, f.err
}

func newStatsMux(counter PassageCounter) *http.ServeMux {
	mux := http.NewServeMux()
	NewStatsHandler(counter, log.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestStatsHandler(t *testing.T) {
	counter := &fakeCounter{
		total: 42,
		subjects: []knowledge.SubjectCount{
			{Subject: "Geography", Count: 12},
			{Subject: "Polity", Count: 30},
		},
	}
	mux := newStatsMux(counter)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.TotalPassages)
	require.Len(t, resp.Subjects, 2)
	assert.Equal(t, "Geography", resp.Subjects[0].Subject)
}

func TestStatsHandler_EmptyStore(t *testing.T) {
	mux := newStatsMux(&fakeCounter{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(0), resp.TotalPassages)
	assert.NotNil(t, resp.Subjects)
	assert.Empty(t, resp.Subjects)
}

func TestStatsHandler_StoreError(t *testing.T) {
	mux := newStatsMux(&fakeCounter{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "STORE_ERROR")
}
