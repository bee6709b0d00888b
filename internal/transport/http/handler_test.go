package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

func TestFullGameOverHTTP(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	created := postJSON(t, server, "/rooms", map[string]any{
		"host_name":     "Host",
		"prompt":        "go",
		"num_questions": 3,
		"difficulty":    "Easy",
	}, http.StatusCreated)

	code := created["room_code"].(string)
	hostID := created["host_id"].(string)
	quiz := created["quiz"].(map[string]any)
	questions := quiz["questions"].([]any)
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions in create response, got %d", len(questions))
	}
	firstAnswer := questions[0].(map[string]any)["answer"].(string)
	if firstAnswer == "" {
		t.Fatalf("create response must include answers for the host")
	}

	joined := postJSON(t, server, "/rooms/"+code+"/join", map[string]any{
		"player_name": "Alice",
	}, http.StatusOK)
	playerID := joined["player_id"].(string)

	state := getJSON(t, server, "/rooms/"+code, http.StatusOK)
	if state["status"] != "waiting" {
		t.Fatalf("expected waiting, got %v", state["status"])
	}
	if state["question"] != nil {
		t.Fatalf("expected no question while waiting")
	}
	if state["current_question_index"] != nil {
		t.Fatalf("expected null index while waiting")
	}

	postJSON(t, server, "/rooms/"+code+"/start", map[string]any{
		"host_id": "wrong",
	}, http.StatusForbidden)

	state = postJSON(t, server, "/rooms/"+code+"/start", map[string]any{
		"host_id": hostID,
	}, http.StatusOK)
	if state["status"] != "in_progress" {
		t.Fatalf("expected in_progress, got %v", state["status"])
	}

	// Player polling view must not leak the answer; host view reveals it.
	state = getJSON(t, server, "/rooms/"+code, http.StatusOK)
	question := state["question"].(map[string]any)
	if _, leaked := question["answer"]; leaked {
		t.Fatalf("player view leaked the answer: %v", question)
	}
	state = getJSON(t, server, "/rooms/"+code+"?host_id="+hostID, http.StatusOK)
	question = state["question"].(map[string]any)
	if question["answer"] != firstAnswer {
		t.Fatalf("host view missing the answer: %v", question)
	}

	state = postJSON(t, server, "/rooms/"+code+"/answer", map[string]any{
		"player_id": playerID,
		"answer":    firstAnswer,
	}, http.StatusOK)
	players := state["players"].([]any)
	player := players[0].(map[string]any)
	if player["score"].(float64) != 1 || player["has_answered_current"] != true {
		t.Fatalf("expected scored roster entry, got %v", player)
	}

	for i := 0; i < 3; i++ {
		state = postJSON(t, server, "/rooms/"+code+"/advance", map[string]any{
			"host_id": hostID,
		}, http.StatusOK)
	}
	if state["status"] != "finished" {
		t.Fatalf("expected finished, got %v", state["status"])
	}
	if state["current_question_index"].(float64) != 2 {
		t.Fatalf("expected index to hold at 2, got %v", state["current_question_index"])
	}

	postJSON(t, server, "/rooms/"+code+"/advance", map[string]any{
		"host_id": hostID,
	}, http.StatusConflict)
}

func TestErrorMapping(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	getJSON(t, server, "/rooms/NOPE42", http.StatusNotFound)
	postJSON(t, server, "/rooms/NOPE42/join", map[string]any{"player_name": "Alice"}, http.StatusNotFound)
	postJSON(t, server, "/rooms", map[string]any{
		"host_name": "Host",
		"prompt":    "unknown topic",
	}, http.StatusNotFound)
	postJSON(t, server, "/rooms", map[string]any{
		"host_name":  "Host",
		"prompt":     "go",
		"difficulty": "impossible",
	}, http.StatusBadRequest)
	postJSON(t, server, "/rooms", map[string]any{
		"prompt": "go",
	}, http.StatusBadRequest)

	created := postJSON(t, server, "/rooms", map[string]any{
		"host_name": "Host",
		"prompt":    "go",
	}, http.StatusCreated)
	code := created["room_code"].(string)
	hostID := created["host_id"].(string)

	// Zero players: start is a policy violation.
	postJSON(t, server, "/rooms/"+code+"/start", map[string]any{"host_id": hostID}, http.StatusConflict)

	postJSON(t, server, "/rooms/"+code+"/join", map[string]any{"player_name": "Alice"}, http.StatusOK)
	postJSON(t, server, "/rooms/"+code+"/start", map[string]any{"host_id": hostID}, http.StatusOK)
	postJSON(t, server, "/rooms/"+code+"/answer", map[string]any{
		"player_id": "ghost",
		"answer":    "whatever",
	}, http.StatusForbidden)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := app.NewRoomService(memory.NewRoomStore(), testGenerator(), app.WithoutAutoAdvance())
	handler := NewHandler(service)
	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("GET /rooms/{code}/watch", NewWatchHandler(service, 20*time.Millisecond).ServeWatch)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, server *httptest.Server, path string, body map[string]any, wantStatus int) map[string]any {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("post %s: expected status %d, got %d", path, wantStatus, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func getJSON(t *testing.T, server *httptest.Server, path string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("get %s: expected status %d, got %d", path, wantStatus, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func testGenerator() *memory.StaticQuizGenerator {
	return memory.NewStaticQuizGenerator(map[string]domain.Quiz{
		"go": {
			Title: "Go Basics",
			Questions: []domain.Question{
				{Question: "Which keyword starts a goroutine?", Choices: []string{"go", "run", "spawn"}, Answer: "go"},
				{Question: "What does len return for a nil slice?", Choices: []string{"panic", "0", "-1"}, Answer: "0"},
				{Question: "Zero value of an interface?", Choices: []string{"nil", "zero", "unset"}, Answer: "nil"},
			},
		},
	})
}
