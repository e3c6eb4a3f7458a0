package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidereel/internal/api"
	"slidereel/internal/config"
	"slidereel/internal/logging"
	"slidereel/internal/queue"
	"slidereel/internal/services"
)

// multipartMemory is the in-memory threshold before multipart parts spill
// to temp files.
const multipartMemory = 32 << 20

type apiServer struct {
	bind      string
	token     string
	maxUpload int64
	logger    *slog.Logger
	daemon    *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:      strings.TrimSpace(cfg.Paths.APIBind),
		token:     strings.TrimSpace(cfg.Paths.APIToken),
		maxUpload: cfg.MaxUploadBytes(),
		logger:    logging.NewComponentLogger(logger, "api-server"),
		daemon:    d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/video/upload", s.handleUpload)
	mux.HandleFunc("GET /api/video/is-busy", s.handleIsBusy)
	mux.HandleFunc("GET /api/video/status", s.handleStatus)
	mux.HandleFunc("GET /api/video/status-all", s.handleStatusAll)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/notify/test", s.handleTestNotify)

	root := http.NewServeMux()
	// Ping stays open so load balancers can probe without a token.
	root.HandleFunc("GET /api/ping", s.handlePing)
	root.Handle("/", authMiddleware(s.token, mux))
	return s.withRequestContext(root)
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.logger.Info("api server disabled", logging.String(logging.FieldEventType, "api_disabled"))
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.mu.Unlock()
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := services.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(started)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	to := strings.TrimSpace(r.FormValue(api.FieldTo))
	if to == "" {
		s.writeError(w, http.StatusBadRequest, `Field "to" was not provided`)
		return
	}
	file, header, err := r.FormFile(api.FieldFile)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "File was not provided")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Unable to read uploaded file: "+err.Error())
		return
	}

	req := queue.Request{
		Archive:        data,
		FileName:       header.Filename,
		NotifyTo:       to,
		SkipUpload:     formFlag(r, api.FieldSkipS3),
		LowRes:         formFlag(r, api.FieldIs720p),
		SuppressNotify: formFlag(r, api.FieldNoEmail),
	}
	logging.WithContext(r.Context(), s.logger).Info("archive uploaded",
		logging.String("file", header.Filename),
		logging.Int64("bytes", int64(len(data))),
		logging.Bool("skip_upload", req.SkipUpload),
		logging.Bool("low_res", req.LowRes),
	)

	id, err := s.daemon.queue.PlaceToQueue(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.UploadResponse{ID: id})
}

// formFlag treats only the literal "true" as set, as the web form sends.
func formFlag(r *http.Request, name string) bool {
	return r.FormValue(name) == "true"
}

func (s *apiServer) handleIsBusy(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.BusyResponse{Status: s.daemon.queue.IsBusy()})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: s.daemon.queue.Status(r.Context(), id)})
}

func (s *apiServer) handleStatusAll(w http.ResponseWriter, r *http.Request) {
	entries := s.daemon.queue.StatusAll(r.Context())
	s.writeJSON(w, http.StatusOK, api.StatusAllResponse{Statuses: api.FromEntries(entries)})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		LockFilePath:   status.LockFilePath,
		StorageBackend: s.daemon.cfg.Storage.Backend,
		HistoryBackend: s.daemon.cfg.History.Backend,
		Busy:           status.Queue.Busy,
		Pending:        len(status.Queue.Pending),
		Dependencies:   api.FromDependencies(status.Dependencies),
		Checks:         api.FromChecks(status.Checks),
	}
	if status.Queue.Current != nil {
		current := api.FromEntry(*status.Queue.Current)
		payload.Current = &current
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleTestNotify(w http.ResponseWriter, r *http.Request) {
	var req api.TestNotifyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context(), req.To)
	if err != nil {
		s.writeJSON(w, http.StatusBadGateway, api.TestNotifyResponse{Sent: false, Message: message + ": " + err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, api.TestNotifyResponse{Sent: sent, Message: message})
}

func (s *apiServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "pong")
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Message: message})
}
