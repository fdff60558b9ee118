package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"

	handlers "github.com/gorilla/handlers"
	mux "github.com/gorilla/mux"
	"github.com/semaphoreci/clidriver/pkg/conversation"
	"github.com/semaphoreci/clidriver/pkg/eventlogger"
	"github.com/semaphoreci/clidriver/pkg/osinfo"
	log "github.com/sirupsen/logrus"
)

const (
	ServerStateIdle       = "idle"
	ServerStateExporting  = "exporting"
	ServerStateLoggingOut = "logging-out"
)

// Exporter runs the conversations the server exposes.
type Exporter interface {
	Export(ctx context.Context, projectPath, token string) (conversation.Result, error)
	Logout(ctx context.Context, projectPath string) (conversation.Result, error)
}

type ServerConfig struct {
	Host      string
	Port      int
	Version   string
	LogFile   io.Writer
	JWTSecret []byte

	Exporter    Exporter
	ProjectPath string

	// Token is used by exports that don't send one,
	// until a logout clears it.
	Token string

	// OnLogout is called after a successful logout.
	OnLogout func() error

	// Transcript is served on /transcript, if set.
	Transcript *eventlogger.FileBackend

	// Only used in tests.
	BeforeConversationFn func()
}

type Server struct {
	config ServerConfig
	router *mux.Router
	lock   Lock

	mu     sync.Mutex
	token  string
	state  string
	last   *ConversationSummary
	cancel context.CancelFunc
	done   chan struct{}
}

type ConversationSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	State          string `json:"state"`
	Outcome        string `json:"outcome,omitempty"`
	URL            string `json:"url,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Error          string `json:"error,omitempty"`
	ExitCode       int    `json:"exit_code"`
	StepsCompleted int    `json:"steps_completed"`
}

type StatusResponse struct {
	State            string               `json:"state"`
	Version          string               `json:"version"`
	Machine          osinfo.Info          `json:"machine"`
	LastConversation *ConversationSummary `json:"last_conversation,omitempty"`
}

type ExportRequest struct {
	ProjectPath string `json:"project_path"`
	Token       string `json:"token"`
}

type LogoutRequest struct {
	ProjectPath string `json:"project_path"`
}

func NewServer(config ServerConfig) *Server {
	if config.LogFile == nil {
		config.LogFile = os.Stdout
	}

	server := &Server{
		config: config,
		token:  config.Token,
		state:  ServerStateIdle,
	}

	jwtMiddleware := CreateJwtMiddleware(config.JWTSecret)
	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/status", jwtMiddleware(server.Status)).Methods("GET")
	router.HandleFunc("/export", jwtMiddleware(server.Export)).Methods("POST")
	router.HandleFunc("/logout", jwtMiddleware(server.Logout)).Methods("POST")
	router.HandleFunc("/stop", jwtMiddleware(server.Stop)).Methods("POST")
	router.HandleFunc("/transcript", jwtMiddleware(server.Transcript)).Methods("GET")

	server.router = router
	return server
}

func (s *Server) Serve() error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	log.Infof("clidriver %s listening on http://%s", s.config.Version, address)

	loggedRouter := handlers.LoggingHandler(s.config.LogFile, s.router)

	// #nosec
	return http.ListenAndServe(address, loggedRouter)
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	response := StatusResponse{
		State:            s.state,
		Version:          s.config.Version,
		Machine:          osinfo.Collect(),
		LastConversation: s.last,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	request := ExportRequest{}
	if !decodeBody(w, r, &request) {
		return
	}

	projectPath := s.projectPath(request.ProjectPath)
	if projectPath == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "project_path is required")
		return
	}

	token := request.Token
	if token == "" {
		s.mu.Lock()
		token = s.token
		s.mu.Unlock()
	}

	if token == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "a CodeSandbox token is required")
		return
	}

	started := s.start(ServerStateExporting, func(ctx context.Context) (conversation.Result, error) {
		return s.config.Exporter.Export(ctx, projectPath, token)
	})

	if !started {
		writeMessage(w, http.StatusUnprocessableEntity, "a conversation is already running")
		return
	}

	writeMessage(w, http.StatusOK, "ok")
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	request := LogoutRequest{}
	if !decodeBody(w, r, &request) {
		return
	}

	projectPath := s.projectPath(request.ProjectPath)

	started := s.start(ServerStateLoggingOut, func(ctx context.Context) (conversation.Result, error) {
		result, err := s.config.Exporter.Logout(ctx, projectPath)
		if err != nil {
			return result, err
		}

		s.mu.Lock()
		s.token = ""
		s.mu.Unlock()

		if s.config.OnLogout != nil {
			err = s.config.OnLogout()
		}

		return result, err
	})

	if !started {
		writeMessage(w, http.StatusUnprocessableEntity, "a conversation is already running")
		return
	}

	writeMessage(w, http.StatusOK, "ok")
}

func (s *Server) Stop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		writeMessage(w, http.StatusOK, "no conversation is running")
		return
	}

	log.Infof("Stopping the running conversation")
	cancel()

	writeMessage(w, http.StatusOK, "ok")
}

func (s *Server) Transcript(w http.ResponseWriter, r *http.Request) {
	if s.config.Transcript == nil {
		writeMessage(w, http.StatusNotFound, "transcripts are disabled")
		return
	}

	startFromLine, err := strconv.Atoi(r.URL.Query().Get("start_from"))
	if err != nil {
		startFromLine = 0
	}

	w.Header().Add("Content-Type", "text/plain")

	next, err := s.config.Transcript.Stream(startFromLine, w)
	if err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		log.Errorf("Error streaming transcript: %v", err)
		return
	}

	log.Debugf("Streamed transcript lines %d to %d", startFromLine, next)
}

// Wait blocks until the running conversation, if any, finishes.
func (s *Server) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (s *Server) start(state string, run func(ctx context.Context) (conversation.Result, error)) bool {
	if !s.lock.TryLock() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.state = state
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer s.lock.Unlock()
		defer cancel()

		if s.config.BeforeConversationFn != nil {
			s.config.BeforeConversationFn()
		}

		result, err := run(ctx)
		if err != nil {
			log.Errorf("Conversation %s failed: %v", state, err)
		}

		s.mu.Lock()
		s.last = summarize(result, err)
		s.state = ServerStateIdle
		s.cancel = nil
		close(done)
		s.mu.Unlock()
	}()

	return true
}

func (s *Server) projectPath(requested string) string {
	if requested != "" {
		return requested
	}

	return s.config.ProjectPath
}

func summarize(result conversation.Result, err error) *ConversationSummary {
	summary := &ConversationSummary{
		ID:             result.ID,
		Name:           result.Name,
		State:          string(result.State),
		Outcome:        result.Outcome,
		URL:            result.URL,
		Reason:         string(result.Reason),
		ExitCode:       result.ExitCode,
		StepsCompleted: result.StepsCompleted,
	}

	if err != nil {
		summary.Error = err.Error()
	}

	return summary
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && err != io.EOF {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}

	return true
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Errorf("Error writing response: %v", err)
	}
}
