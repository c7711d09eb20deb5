package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/activitylog-backend/internal/clients/redis"
	types "github.com/yungbote/activitylog-backend/internal/domain"
	"github.com/yungbote/activitylog-backend/internal/pkg/apperr"
	"github.com/yungbote/activitylog-backend/internal/services"
)

type stubActivityService struct {
	ingestErr    error
	ingested     [][]types.EventInput
	getEvent     *types.ActivityEvent
	getErr       error
	queryFilter  services.QueryFilter
	queryErr     error
	scanFrom     int64
	scanTo       int64
	scanLimit    int
}

func (s *stubActivityService) Ingest(_ context.Context, _ *gorm.DB, inputs []types.EventInput) ([]*types.ActivityEvent, error) {
	s.ingested = append(s.ingested, inputs)
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	out := make([]*types.ActivityEvent, 0, len(inputs))
	for i := range inputs {
		out = append(out, &types.ActivityEvent{ID: int64(i + 1)})
	}
	return out, nil
}

func (s *stubActivityService) Get(context.Context, *gorm.DB, int64) (*types.ActivityEvent, error) {
	return s.getEvent, s.getErr
}

func (s *stubActivityService) Query(_ context.Context, _ *gorm.DB, f services.QueryFilter) ([]*types.ActivityEvent, string, error) {
	s.queryFilter = f
	if s.queryErr != nil {
		return nil, "", s.queryErr
	}
	return []*types.ActivityEvent{{ID: 7}}, "next", nil
}

func (s *stubActivityService) Scan(_ context.Context, _ *gorm.DB, fromID, toID int64, limit int) ([]*types.ActivityEvent, error) {
	s.scanFrom, s.scanTo, s.scanLimit = fromID, toID, limit
	return nil, nil
}

type stubPublishStream struct {
	redisclient.AnalyticsStream
	published []types.EventInput
	err       error
}

func (s *stubPublishStream) Publish(_ context.Context, in types.EventInput) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, in)
	return nil
}

func newTestRouter(h *ActivityHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/events", h.Ingest)
	r.POST("/events/enqueue", h.Enqueue)
	r.GET("/events", h.Query)
	r.GET("/events/scan", h.Scan)
	r.GET("/events/:id", h.GetByID)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, w.Body.String())
	}
	return env.Error.Code
}

func eventBody(n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(
			`{"event_type":"search","session_id":"s%d","device_id":"d1","created_at":"%s"}`,
			i, time.Now().UTC().Format(time.RFC3339)))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestIngest_AcceptsEnvelopeArrayAndSingleObject(t *testing.T) {
	single := `{"event_type":"search","session_id":"s1","device_id":"d1","created_at":"2026-01-02T03:04:05Z"}`
	cases := []struct {
		name string
		body string
		want int
	}{
		{name: "envelope", body: `{"events":` + eventBody(2) + `}`, want: 2},
		{name: "array", body: eventBody(3), want: 3},
		{name: "single_object", body: single, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubActivityService{}
			r := newTestRouter(NewActivityHandler(svc, nil))

			w := doJSON(t, r, http.MethodPost, "/events", tc.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
			if len(svc.ingested) != 1 || len(svc.ingested[0]) != tc.want {
				t.Fatalf("ingested batches = %+v, want one batch of %d", svc.ingested, tc.want)
			}
		})
	}
}

func TestIngest_BadBodies(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "empty", body: "", wantCode: "empty_body"},
		{name: "malformed_json", body: `{{{`, wantCode: "invalid_json"},
		{name: "empty_array", body: `[]`, wantCode: "no_events"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(NewActivityHandler(&stubActivityService{}, nil))
			w := doJSON(t, r, http.MethodPost, "/events", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if got := errorCode(t, w); got != tc.wantCode {
				t.Fatalf("error code = %q, want %q", got, tc.wantCode)
			}
		})
	}
}

func TestIngest_ErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "validation", err: apperr.Validation("blank event_type"), wantStatus: http.StatusBadRequest, wantCode: "event_invalid"},
		{name: "referential", err: apperr.Referential("referenced user does not exist"), wantStatus: http.StatusUnprocessableEntity, wantCode: "user_not_found"},
		{name: "store", err: apperr.Store("append events", fmt.Errorf("connection reset")), wantStatus: http.StatusInternalServerError, wantCode: "event_ingest_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubActivityService{ingestErr: tc.err}
			r := newTestRouter(NewActivityHandler(svc, nil))

			w := doJSON(t, r, http.MethodPost, "/events", eventBody(1))
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if got := errorCode(t, w); got != tc.wantCode {
				t.Fatalf("error code = %q, want %q", got, tc.wantCode)
			}
		})
	}
}

func TestEnqueue(t *testing.T) {
	t.Run("no stream configured", func(t *testing.T) {
		r := newTestRouter(NewActivityHandler(&stubActivityService{}, nil))
		w := doJSON(t, r, http.MethodPost, "/events/enqueue", eventBody(1))
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", w.Code)
		}
	})

	t.Run("publishes each event", func(t *testing.T) {
		stream := &stubPublishStream{}
		r := newTestRouter(NewActivityHandler(&stubActivityService{}, stream))
		w := doJSON(t, r, http.MethodPost, "/events/enqueue", eventBody(3))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if len(stream.published) != 3 {
			t.Fatalf("published = %d, want 3", len(stream.published))
		}
	})

	t.Run("publish failure", func(t *testing.T) {
		stream := &stubPublishStream{err: fmt.Errorf("redis down")}
		r := newTestRouter(NewActivityHandler(&stubActivityService{}, stream))
		w := doJSON(t, r, http.MethodPost, "/events/enqueue", eventBody(1))
		if w.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", w.Code)
		}
	})
}

func TestQuery_ParamMapping(t *testing.T) {
	svc := &stubActivityService{}
	r := newTestRouter(NewActivityHandler(svc, nil))

	w := doJSON(t, r, http.MethodGet, "/events?user=42&cursor=abc&limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	f := svc.queryFilter
	if f.UserID == nil || *f.UserID != 42 {
		t.Fatalf("user filter = %+v, want 42", f.UserID)
	}
	if f.Cursor != "abc" || f.Limit != 10 {
		t.Fatalf("cursor/limit = %q/%d", f.Cursor, f.Limit)
	}
	if f.EventType != nil || f.SessionID != nil || f.DeviceID != nil {
		t.Fatalf("unexpected extra dimensions: %+v", f)
	}

	w = doJSON(t, r, http.MethodGet, "/events?type=search", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.queryFilter.EventType == nil || *svc.queryFilter.EventType != "search" {
		t.Fatalf("type filter = %+v", svc.queryFilter.EventType)
	}
}

func TestQuery_BadParams(t *testing.T) {
	r := newTestRouter(NewActivityHandler(&stubActivityService{}, nil))

	if w := doJSON(t, r, http.MethodGet, "/events?user=abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric user: status = %d, want 400", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/events?limit=xyz", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric limit: status = %d, want 400", w.Code)
	}
}

func TestQuery_ValidationErrorFromService(t *testing.T) {
	svc := &stubActivityService{queryErr: apperr.Validation("exactly one dimension required")}
	r := newTestRouter(NewActivityHandler(svc, nil))

	w := doJSON(t, r, http.MethodGet, "/events?type=a&session=b", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := errorCode(t, w); got != "invalid_query" {
		t.Fatalf("error code = %q, want invalid_query", got)
	}
}

func TestGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &stubActivityService{getEvent: &types.ActivityEvent{ID: 9, EventType: "search"}}
		r := newTestRouter(NewActivityHandler(svc, nil))
		w := doJSON(t, r, http.MethodGet, "/events/9", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("missing", func(t *testing.T) {
		r := newTestRouter(NewActivityHandler(&stubActivityService{}, nil))
		w := doJSON(t, r, http.MethodGet, "/events/12345", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		if got := errorCode(t, w); got != "event_not_found" {
			t.Fatalf("error code = %q", got)
		}
	})

	t.Run("non-numeric id", func(t *testing.T) {
		r := newTestRouter(NewActivityHandler(&stubActivityService{}, nil))
		w := doJSON(t, r, http.MethodGet, "/events/abc", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})
}

func TestScan_ParamMapping(t *testing.T) {
	svc := &stubActivityService{}
	r := newTestRouter(NewActivityHandler(svc, nil))

	w := doJSON(t, r, http.MethodGet, "/events/scan?from=10&to=20&limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.scanFrom != 10 || svc.scanTo != 20 || svc.scanLimit != 5 {
		t.Fatalf("scan args = (%d, %d, %d)", svc.scanFrom, svc.scanTo, svc.scanLimit)
	}

	if w := doJSON(t, r, http.MethodGet, "/events/scan?from=oops", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad from: status = %d, want 400", w.Code)
	}
}
