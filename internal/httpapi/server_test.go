package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/corpus"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/game"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/httpapi"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/match"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/oracle"
)

var testVerses = []corpus.Verse{
	{Text: "यदा यदा हि धर्मस्य ग्लानिर्भवति भारत", StartChar: "य", NextChar: "त", Opening: true},
	{Text: "तस्मादसक्तः सततं कार्यं समाचर", StartChar: "त", NextChar: "र"},
	{Text: "रामो राजमणिः सदा विजयते", StartChar: "र", NextChar: "त"},
}

func newTestServer(t *testing.T, opts ...httpapi.Option) *httptest.Server {
	t.Helper()
	idx := corpus.NewIndex(testVerses).WithRand(func(int) int { return 0 })
	engine := game.NewEngine(idx, match.New(idx))
	srv := httptest.NewServer(httpapi.New(engine, idx, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func createGame(t *testing.T, srv *httptest.Server) game.View {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/games", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /v1/games: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create game status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var view game.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func submitTurn(t *testing.T, srv *httptest.Server, gameID, text string) (*http.Response, game.TurnOutcome) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"text": text})
	resp, err := http.Post(srv.URL+"/v1/games/"+gameID+"/turns", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST turn: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var out game.TurnOutcome
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode outcome: %v", err)
		}
	}
	return resp, out
}

func TestCreateAndGetGame(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	view := createGame(t, srv)
	if view.ID == "" {
		t.Fatal("created game has no ID")
	}
	if view.RequiredChar != "त" {
		t.Errorf("RequiredChar = %q, want %q", view.RequiredChar, "त")
	}
	if len(view.TurnLog) != 1 {
		t.Errorf("TurnLog length = %d, want 1", len(view.TurnLog))
	}

	resp, err := http.Get(srv.URL + "/v1/games/" + view.ID)
	if err != nil {
		t.Fatalf("GET game: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get game status = %d, want 200", resp.StatusCode)
	}

	var got game.View
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if got.ID != view.ID {
		t.Errorf("ID = %q, want %q", got.ID, view.ID)
	}
}

func TestCreateGame_WithStartChar(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/games", "application/json",
		strings.NewReader(`{"startChar": "य"}`))
	if err != nil {
		t.Fatalf("POST /v1/games: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var view game.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.TurnLog[0].Text != testVerses[0].Text {
		t.Errorf("opening = %q, want %q", view.TurnLog[0].Text, testVerses[0].Text)
	}
}

func TestCreateGame_NoOpeningForChar(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/games", "application/json",
		strings.NewReader(`{"startChar": "क"}`))
	if err != nil {
		t.Fatalf("POST /v1/games: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetGame_NotFound(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/games/game-nope")
	if err != nil {
		t.Fatalf("GET game: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSubmitTurn_Accepted(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	view := createGame(t, srv)

	resp, out := submitTurn(t, srv, view.ID, testVerses[1].Text)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !out.Accepted {
		t.Fatalf("outcome = %+v, want accepted", out)
	}
	if out.Score != 10 {
		t.Errorf("Score = %d, want 10", out.Score)
	}
	if out.Reply == nil || out.Reply.Text != testVerses[2].Text {
		t.Errorf("Reply = %+v, want %q", out.Reply, testVerses[2].Text)
	}
}

func TestSubmitTurn_Rejected(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	view := createGame(t, srv)

	resp, out := submitTurn(t, srv, view.ID, testVerses[2].Text)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if out.Accepted || out.Reason != game.RejectWrongStartChar {
		t.Errorf("outcome = %+v, want wrong_start_char rejection", out)
	}
}

func TestSubmitTurn_BadBody(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	view := createGame(t, srv)

	resp, err := http.Post(srv.URL+"/v1/games/"+view.ID+"/turns", "application/json",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST turn: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSubmitTurn_UnknownGame(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, _ := submitTurn(t, srv, "game-nope", "whatever")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTerminateAndGone(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	view := createGame(t, srv)

	body := strings.NewReader(`{"reason": "player quit"}`)
	resp, err := http.Post(srv.URL+"/v1/games/"+view.ID+"/terminate", "application/json", body)
	if err != nil {
		t.Fatalf("POST terminate: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("terminate status = %d, want 200", resp.StatusCode)
	}
	var terminated game.View
	if err := json.NewDecoder(resp.Body).Decode(&terminated); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if !terminated.Terminated || terminated.TerminationReason != "player quit" {
		t.Errorf("view = %+v, want terminated with reason", terminated)
	}

	// Submissions against a terminated game are gone.
	turnResp, _ := submitTurn(t, srv, view.ID, testVerses[1].Text)
	if turnResp.StatusCode != http.StatusGone {
		t.Errorf("turn status = %d, want 410", turnResp.StatusCode)
	}

	// So is a second terminate.
	again, err := http.Post(srv.URL+"/v1/games/"+view.ID+"/terminate", "application/json", nil)
	if err != nil {
		t.Fatalf("POST terminate: %v", err)
	}
	defer again.Body.Close()
	if again.StatusCode != http.StatusGone {
		t.Errorf("second terminate status = %d, want 410", again.StatusCode)
	}
}

func TestRestart(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	view := createGame(t, srv)

	if _, out := submitTurn(t, srv, view.ID, testVerses[1].Text); !out.Accepted {
		t.Fatalf("setup turn rejected: %+v", out)
	}

	resp, err := http.Post(srv.URL+"/v1/games/"+view.ID+"/restart", "application/json", nil)
	if err != nil {
		t.Fatalf("POST restart: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restart status = %d, want 200", resp.StatusCode)
	}

	var restarted game.View
	if err := json.NewDecoder(resp.Body).Decode(&restarted); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if restarted.Score != 0 || len(restarted.TurnLog) != 1 {
		t.Errorf("view = %+v, want fresh session", restarted)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	createGame(t, srv)

	resp, err := http.Get(srv.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var stats struct {
		Games        int            `json:"games"`
		CorpusVerses int            `json:"corpusVerses"`
		ByStartChar  map[string]int `json:"byStartChar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Games != 1 {
		t.Errorf("Games = %d, want 1", stats.Games)
	}
	if stats.CorpusVerses != len(testVerses) {
		t.Errorf("CorpusVerses = %d, want %d", stats.CorpusVerses, len(testVerses))
	}
	if stats.ByStartChar["य"] != 1 {
		t.Errorf("ByStartChar[य] = %d, want 1", stats.ByStartChar["य"])
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestReadyz_FailingChecker(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, httpapi.WithCheckers(
		httpapi.Checker{Name: "corpus", Check: func(context.Context) error { return nil }},
		httpapi.Checker{Name: "oracle", Check: func(context.Context) error { return errors.New("unreachable") }},
	))

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET readyz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var res struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Status != "fail" {
		t.Errorf("Status = %q, want fail", res.Status)
	}
	if res.Checks["corpus"] != "ok" {
		t.Errorf("corpus check = %q, want ok", res.Checks["corpus"])
	}
	if !strings.HasPrefix(res.Checks["oracle"], "fail") {
		t.Errorf("oracle check = %q, want failure", res.Checks["oracle"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

// stallAdapter blocks inside Resolve until released, so a second request
// can race the first one.
type stallAdapter struct {
	entered chan struct{}
	release chan struct{}
}

func (a *stallAdapter) Resolve(ctx context.Context, _ oracle.Request) (*oracle.Response, error) {
	close(a.entered)
	select {
	case <-a.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &oracle.Response{Valid: false, Reason: "not a verse"}, nil
}

func TestSubmitTurn_Conflict(t *testing.T) {
	t.Parallel()

	adapter := &stallAdapter{entered: make(chan struct{}), release: make(chan struct{})}
	idx := corpus.NewIndex(testVerses).WithRand(func(int) int { return 0 })
	engine := game.NewEngine(idx, match.New(idx), game.WithOracle(adapter, "stall"))
	srv := httptest.NewServer(httpapi.New(engine, idx).Handler())
	t.Cleanup(srv.Close)

	view := createGame(t, srv)

	// An unmatched submission falls through to the oracle and stalls there.
	done := make(chan struct{})
	go func() {
		defer close(done)
		body := strings.NewReader(`{"text": "तत्त्वमसि श्वेतकेतो"}`)
		resp, err := http.Post(srv.URL+"/v1/games/"+view.ID+"/turns", "application/json", body)
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-adapter.entered

	resp, _ := submitTurn(t, srv, view.ID, testVerses[1].Text)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}

	close(adapter.release)
	<-done
}

func TestEvents_StreamsTurns(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	view := createGame(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/games/" + view.ID + "/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "test done")

	if _, out := submitTurn(t, srv, view.ID, testVerses[1].Text); !out.Accepted {
		t.Fatalf("setup turn rejected: %+v", out)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("websocket read: %v", err)
	}

	var ev httpapi.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Type != httpapi.EventTurn {
		t.Errorf("event type = %q, want %q", ev.Type, httpapi.EventTurn)
	}
	if ev.GameID != view.ID {
		t.Errorf("event game = %q, want %q", ev.GameID, view.ID)
	}
	if ev.Outcome == nil || !ev.Outcome.Accepted {
		t.Errorf("event outcome = %+v, want accepted", ev.Outcome)
	}
	if ev.Score != 10 {
		t.Errorf("event score = %d, want 10", ev.Score)
	}
}

func TestEvents_UnknownGame(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/games/game-nope/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
