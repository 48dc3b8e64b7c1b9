package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"spectrocheck/internal/daemon"
	"spectrocheck/internal/logging"
	"spectrocheck/internal/verdict"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Spectrocheck", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.WatcherActive = status.WatcherActive
	resp.Pipeline = PipelineStats{
		QueueDepth: status.Pipeline.QueueDepth,
		Processed:  status.Pipeline.Processed,
		Passed:     status.Pipeline.Passed,
		Failed:     status.Pipeline.Failed,
		Skipped:    status.Pipeline.Skipped,
		Errored:    status.Pipeline.Errored,
		CacheHits:  status.Pipeline.CacheHits,
		LastFile:   status.Pipeline.LastFile,
		LastStatus: status.Pipeline.LastStatus,
	}
	resp.CachePath = status.CachePath
	resp.CacheEntries = status.CacheEntries
	resp.HistoryDBPath = status.HistoryDBPath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	resp.Dependencies = make([]DependencyStatus, 0, len(status.Dependencies))
	for _, dep := range status.Dependencies {
		resp.Dependencies = append(resp.Dependencies, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return nil
}

func (s *service) Check(req CheckRequest, resp *CheckResponse) error {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return errors.New("check requires a path")
	}
	s.logger.Debug("check requested", logging.String(logging.FieldFile, path))

	v, err := s.daemon.Check(path)
	if err != nil {
		return err
	}
	if v == nil {
		resp.Queued = true
		return nil
	}
	resp.Verdict = verdictPayload(*v)
	return nil
}

func (s *service) Recent(req RecentRequest, resp *RecentResponse) error {
	checks, err := s.daemon.Recent(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Checks = make([]CheckRecord, 0, len(checks))
	for _, check := range checks {
		resp.Checks = append(resp.Checks, CheckRecord{
			ID:             check.ID,
			Path:           check.Path,
			Backend:        check.Backend,
			Status:         check.Status,
			Reason:         check.Reason,
			DeclaredKbps:   check.DeclaredKbps,
			ActualKbps:     check.ActualKbps,
			MaxFrequencyHz: check.MaxFrequencyHz,
			ElapsedMS:      check.ElapsedMS,
			CreatedAt:      check.CreatedAt,
		})
	}
	return nil
}

func (s *service) Stats(_ StatsRequest, resp *StatsResponse) error {
	counts, err := s.daemon.StatusCounts(s.ctx)
	if err != nil {
		return err
	}
	resp.Counts = counts
	return nil
}

func (s *service) CacheList(_ CacheListRequest, resp *CacheListResponse) error {
	entries := s.daemon.CacheEntries()
	resp.Entries = make([]CacheEntry, 0, len(entries))
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, CacheEntry{
			Path:           entry.Path,
			Status:         entry.Status,
			Reason:         entry.Reason,
			DeclaredKbps:   entry.DeclaredKbps,
			ActualKbps:     entry.ActualKbps,
			MaxFrequencyHz: entry.MaxFrequencyHz,
			CheckedAt:      entry.CheckedAt,
		})
	}
	return nil
}

func (s *service) CacheRemove(req CacheRemoveRequest, resp *CacheRemoveResponse) error {
	if err := s.daemon.RemoveCacheEntry(req.Path); err != nil {
		return err
	}
	resp.Path = req.Path
	s.logger.Info("cache entry removed",
		logging.String(logging.FieldEventType, "cache_remove"),
		logging.String(logging.FieldFile, req.Path))
	return nil
}

func (s *service) CacheClear(_ CacheClearRequest, resp *CacheClearResponse) error {
	s.logger.Debug("cache clear requested")
	removed, err := s.daemon.ClearCache()
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("result cache cleared",
		logging.String(logging.FieldEventType, "cache_clear"),
		logging.Int("removed_count", removed))
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func verdictPayload(v verdict.Verdict) *VerdictPayload {
	return &VerdictPayload{
		Status:         string(v.Status),
		Reason:         v.Reason,
		DeclaredKbps:   v.Measurement.DeclaredKbps,
		ActualKbps:     v.Measurement.ActualKbps,
		MaxFrequencyHz: v.Measurement.MaxFrequencyHz,
	}
}
