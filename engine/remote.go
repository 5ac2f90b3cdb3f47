package engine

import (
	"bytes"
	"chessclock/searcher"
	"chessclock/timeman"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type MoveRequest struct {
	Limits timeman.Limits `json:"limits"`
	Color  timeman.Color  `json:"color"`
	Phase  float64        `json:"phase"`
}

// RemoteAgent asks an agent server for its moves over HTTP
type RemoteAgent struct {
	URL    string
	Client *http.Client
}

func NewRemoteAgent(url string) *RemoteAgent {
	return &RemoteAgent{
		URL:    strings.TrimSuffix(url, "/"),
		Client: http.DefaultClient,
	}
}

func (a *RemoteAgent) FindMove(ctx context.Context, limits timeman.Limits, us timeman.Color, phase float64) (searcher.Result, error) {
	var result searcher.Result
	err := a.post(ctx, "/findmove", MoveRequest{Limits: limits, Color: us, Phase: phase}, &result)
	return result, err
}

// NewGame tells the server a new game starts. Failures are only logged, the
// server then carries its node budget over.
func (a *RemoteAgent) NewGame() {
	if err := a.post(context.Background(), "/newgame", struct{}{}, nil); err != nil {
		log.Warn().Err(err).Str("url", a.URL).Msg("new-game-failed")
	}
}

func (a *RemoteAgent) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("agent at %s unreachable: %w", a.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("agent returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode agent response: %w", err)
	}
	return nil
}

// AgentServer serves one agent over HTTP. Requests are handled one at a time
// since an agent searches a single move at once.
type AgentServer struct {
	mu    sync.Mutex
	agent Agent
}

func NewAgentServer(agent Agent) *AgentServer {
	if agent == nil {
		panic("agent server needs an agent")
	}
	return &AgentServer{agent: agent}
}

func (s *AgentServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/findmove", s.findMove).Methods(http.MethodPost)
	r.HandleFunc("/newgame", s.newGame).Methods(http.MethodPost)
	return r
}

func (s *AgentServer) findMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Color != timeman.White && req.Color != timeman.Black {
		http.Error(w, fmt.Sprintf("bad request: unknown color %d", req.Color), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	result, err := s.agent.FindMove(r.Context(), req.Limits, req.Color, req.Phase)
	s.mu.Unlock()
	if err != nil {
		http.Error(w, "search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Error().Err(err).Msg("failed to encode result")
	}
}

func (s *AgentServer) newGame(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.agent.NewGame()
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}
