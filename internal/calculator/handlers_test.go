package calculator

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"go-calculator/internal/observability"
	"go-calculator/internal/testutil"
)

func newTestRouter(t *testing.T, store *Store) http.Handler {
	t.Helper()

	old := observability.Logger
	observability.Logger = zap.NewNop()
	t.Cleanup(func() { observability.Logger = old })

	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}

	r := chi.NewRouter()
	NewHandler(store).RegisterRoutes(r)
	return r
}

func createSession(t *testing.T, h http.Handler) SessionResponse {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/calculator/sessions", nil)
	w := testutil.ExecuteRequest(r, h)
	testutil.CheckResponseCode(t, http.StatusCreated, w.Code)

	var resp SessionResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	return resp
}

func press(t *testing.T, h http.Handler, id, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := testutil.NewJSONRequest(http.MethodPost, "/calculator/sessions/"+id+"/press", body)
	return testutil.ExecuteRequest(r, h)
}

func TestCreateSession(t *testing.T) {
	h := newTestRouter(t, NewStore(10))

	resp := createSession(t, h)
	if resp.ID == "" {
		t.Fatal("expected session id")
	}
	if resp.Display != "0" {
		t.Fatalf("expected display %q, got %q", "0", resp.Display)
	}
	if resp.State.Active != "first" || resp.State.First != nil {
		t.Fatalf("expected initial state, got %+v", resp.State)
	}
}

func TestCreateSessionWhenStoreFull(t *testing.T) {
	h := newTestRouter(t, NewStore(1))
	createSession(t, h)

	r := httptest.NewRequest(http.MethodPost, "/calculator/sessions", nil)
	w := testutil.ExecuteRequest(r, h)
	testutil.CheckResponseCode(t, http.StatusServiceUnavailable, w.Code)
}

func TestCreateSessionAfterIdleSessionsExpire(t *testing.T) {
	clock := newClock()
	h := newTestRouter(t, NewStore(1, WithIdleTTL(time.Minute), WithClock(clock.Now)))
	old := createSession(t, h)

	r := httptest.NewRequest(http.MethodPost, "/calculator/sessions", nil)
	w := testutil.ExecuteRequest(r, h)
	testutil.CheckResponseCode(t, http.StatusServiceUnavailable, w.Code)

	clock.Advance(time.Minute)
	createSession(t, h)

	r = httptest.NewRequest(http.MethodGet, "/calculator/sessions/"+old.ID, nil)
	w = testutil.ExecuteRequest(r, h)
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)
}

func TestPressButtons(t *testing.T) {
	h := newTestRouter(t, NewStore(10))
	id := createSession(t, h).ID

	w := press(t, h, id, `{"buttons":["2","+","3","x","4","="]}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp PressResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)

	if resp.Display != "20" {
		t.Fatalf("expected display %q, got %q", "20", resp.Display)
	}

	wantDisplays := []string{"2", "0", "3", "0", "4", "20"}
	if len(resp.Presses) != len(wantDisplays) {
		t.Fatalf("expected %d presses, got %d", len(wantDisplays), len(resp.Presses))
	}
	for i, want := range wantDisplays {
		if resp.Presses[i].Display != want {
			t.Fatalf("press %d (%s): expected display %q, got %q", i, resp.Presses[i].Button, want, resp.Presses[i].Display)
		}
	}

	if resp.State.Last != "multiply" {
		t.Fatalf("expected last operator multiply, got %q", resp.State.Last)
	}
	if resp.State.LastOperand == nil || *resp.State.LastOperand != "4" {
		t.Fatalf("expected last operand 4, got %v", resp.State.LastOperand)
	}
}

func TestPressSequenceKeepsStateAcrossRequests(t *testing.T) {
	h := newTestRouter(t, NewStore(10))
	id := createSession(t, h).ID

	w := press(t, h, id, `{"sequence":"4+1="}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	w = press(t, h, id, `{"sequence":"="}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp PressResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Display != "6" {
		t.Fatalf("expected repeat equals to show %q, got %q", "6", resp.Display)
	}

	r := httptest.NewRequest(http.MethodGet, "/calculator/sessions/"+id, nil)
	w = testutil.ExecuteRequest(r, h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var got SessionResponse
	testutil.DecodeJSONBody(t, w.Body, &got)
	if got.Display != "6" {
		t.Fatalf("expected stored display %q, got %q", "6", got.Display)
	}
}

func TestPressHighlightsPendingOperator(t *testing.T) {
	h := newTestRouter(t, NewStore(10))
	id := createSession(t, h).ID

	w := press(t, h, id, `{"sequence":"9 ÷"}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp PressResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.State.Highlighted != "÷" {
		t.Fatalf("expected highlighted %q, got %q", "÷", resp.State.Highlighted)
	}
	if resp.State.Pending != "divide" {
		t.Fatalf("expected pending divide, got %q", resp.State.Pending)
	}
}

func TestPressDivideByZero(t *testing.T) {
	h := newTestRouter(t, NewStore(10))
	id := createSession(t, h).ID

	w := press(t, h, id, `{"sequence":"1/0="}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp PressResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Display != "Inf" {
		t.Fatalf("expected display %q, got %q", "Inf", resp.Display)
	}
}

func TestPressErrors(t *testing.T) {
	h := newTestRouter(t, NewStore(10))
	id := createSession(t, h).ID

	tests := []struct {
		name string
		id   string
		body string
		want int
	}{
		{name: "invalid json", id: id, body: `{`, want: http.StatusBadRequest},
		{name: "no buttons", id: id, body: `{}`, want: http.StatusBadRequest},
		{name: "unknown button", id: id, body: `{"buttons":["sqrt"]}`, want: http.StatusBadRequest},
		{name: "unknown key in sequence", id: id, body: `{"sequence":"2^3"}`, want: http.StatusBadRequest},
		{name: "unknown session", id: "missing", body: `{"sequence":"1"}`, want: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := press(t, h, tc.id, tc.body)
			testutil.CheckResponseCode(t, tc.want, w.Code)

			var body map[string]string
			testutil.DecodeJSONBody(t, w.Body, &body)
			if body["error"] == "" {
				t.Fatal("expected error message in body")
			}
		})
	}

	// A rejected request leaves the session untouched.
	r := httptest.NewRequest(http.MethodGet, "/calculator/sessions/"+id, nil)
	w := testutil.ExecuteRequest(r, h)
	var got SessionResponse
	testutil.DecodeJSONBody(t, w.Body, &got)
	if got.Display != "0" {
		t.Fatalf("expected display %q, got %q", "0", got.Display)
	}
}

func TestDeleteSession(t *testing.T) {
	store := NewStore(10)
	h := newTestRouter(t, store)
	id := createSession(t, h).ID

	r := httptest.NewRequest(http.MethodDelete, "/calculator/sessions/"+id, nil)
	w := testutil.ExecuteRequest(r, h)
	testutil.CheckResponseCode(t, http.StatusNoContent, w.Code)

	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d sessions", store.Len())
	}

	w = testutil.ExecuteRequest(httptest.NewRequest(http.MethodDelete, "/calculator/sessions/"+id, nil), h)
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)

	w = testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/calculator/sessions/"+id, nil), h)
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)
}

func TestKeypad(t *testing.T) {
	h := newTestRouter(t, NewStore(1))

	r := httptest.NewRequest(http.MethodGet, "/calculator/keypad", nil)
	w := testutil.ExecuteRequest(r, h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp struct {
		Keys []struct {
			Name     string `json:"name"`
			Title    string `json:"title"`
			Tag      int    `json:"tag"`
			Category string `json:"category"`
			Wide     bool   `json:"wide"`
		} `json:"keys"`
	}
	testutil.DecodeJSONBody(t, w.Body, &resp)

	if len(resp.Keys) != 19 {
		t.Fatalf("expected 19 keys, got %d", len(resp.Keys))
	}
	first := resp.Keys[0]
	if first.Title != "AC" || first.Tag != 10 || first.Category != "function" || first.Name != "all_clear" {
		t.Fatalf("unexpected first key %+v", first)
	}
	zero := resp.Keys[16]
	if zero.Title != "0" || !zero.Wide {
		t.Fatalf("expected wide zero key, got %+v", zero)
	}
}

func TestPressLogsEvaluations(t *testing.T) {
	h := newTestRouter(t, NewStore(10))
	id := createSession(t, h).ID

	core, logs := observer.New(zap.InfoLevel)
	observability.Logger = zap.New(core)

	w := press(t, h, id, `{"sequence":"6/4=="}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	evals := logs.FilterMessage("calculator evaluation completed").All()
	if len(evals) != 2 {
		t.Fatalf("expected 2 evaluation logs, got %d", len(evals))
	}

	first := evals[0].ContextMap()
	if first["expression"] != "6 ÷ 4 = 1.5" {
		t.Fatalf("expected expression %q, got %#v", "6 ÷ 4 = 1.5", first["expression"])
	}
	if first["repeat"] != false {
		t.Fatalf("expected first evaluation not to repeat, got %#v", first["repeat"])
	}

	second := evals[1].ContextMap()
	if second["expression"] != "1.5 ÷ 4 = 0.375" {
		t.Fatalf("expected expression %q, got %#v", "1.5 ÷ 4 = 0.375", second["expression"])
	}
	if second["repeat"] != true {
		t.Fatalf("expected repeat evaluation, got %#v", second["repeat"])
	}

	if n := logs.FilterMessage("calculator presses applied").Len(); n != 1 {
		t.Fatalf("expected 1 summary log, got %d", n)
	}
}
