package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ein-shved/swyh-rs/internal/audio"
	"github.com/ein-shved/swyh-rs/internal/config"
	"github.com/ein-shved/swyh-rs/internal/metrics"
	"github.com/ein-shved/swyh-rs/internal/stream"
)

const (
	// Product identity sent on every response. Some renderers key their
	// behavior off these values.
	serverIdentity = "swyh-rs"
	icyName        = "swyh-rs"

	// Two acceptors keep new connections flowing while handler goroutines
	// stream for minutes or hours.
	numAcceptors = 2
)

// header is one response header line. Order is preserved on the wire.
type header struct {
	name  string
	value string
}

// StreamingServer accepts renderer connections and serves the four streaming
// resources. One goroutine is spawned per accepted connection and lives for
// the whole request/response cycle.
type StreamingServer struct {
	cfg      config.ServerConfig
	logger   *slog.Logger
	store    *config.Store
	registry *stream.Registry
	feedback *stream.Feedback
	metrics  *metrics.Metrics
	source   audio.SourceDescriptor

	listener net.Listener
	wg       sync.WaitGroup
	closed   atomic.Bool
}

// NewStreamingServer creates a streaming server. The registry and feedback
// channel are injected so several independent instances can coexist.
func NewStreamingServer(
	cfg config.ServerConfig,
	logger *slog.Logger,
	store *config.Store,
	registry *stream.Registry,
	feedback *stream.Feedback,
	m *metrics.Metrics,
	source audio.SourceDescriptor,
) *StreamingServer {
	return &StreamingServer{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		feedback: feedback,
		metrics:  m,
		source:   source,
	}
}

// Start binds the listening endpoint and launches the acceptor pool. A bind
// failure is fatal to startup and returned to the caller, never retried.
func (s *StreamingServer) Start() error {
	addr := net.JoinHostPort(s.cfg.BindAddress, strconv.Itoa(s.cfg.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind streaming endpoint %s: %w", addr, err)
	}
	s.listener = listener

	snap := s.store.Streaming()
	s.logger.Info("Streaming server listening",
		slog.String("address", listener.Addr().String()),
		slog.String("stream_url", fmt.Sprintf("http://%s%s", listener.Addr(), audio.PathWAV)),
	)
	s.logger.Info("Streaming defaults",
		slog.Int("sample_rate", s.source.SampleRate),
		slog.String("sample_format", s.source.SampleFormat.String()),
		slog.Int("bits_per_sample", snap.BitsPerSample),
		slog.String("format", snap.Format),
	)

	for i := 0; i < numAcceptors; i++ {
		s.wg.Add(1)
		go s.acceptLoop(i)
	}

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *StreamingServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for the acceptor pool. Streaming
// handler goroutines are not drained; they end with their connections.
func (s *StreamingServer) Stop() {
	s.closed.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
}

// acceptLoop blocks on the next incoming connection and hands each one to a
// fresh handler goroutine, so accepting is never stalled behind a stream.
func (s *StreamingServer) acceptLoop(id int) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("Accept failed",
				slog.Int("acceptor", id),
				slog.String("error", err.Error()),
			)
			continue
		}

		go s.handleConn(conn)
	}
}

// handleConn serves one renderer connection: validate, negotiate, dispatch.
func (s *StreamingServer) handleConn(conn net.Conn) {
	defer conn.Close()

	remoteAddr := conn.RemoteAddr().String()
	remoteIP := bareIP(remoteAddr)

	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		s.logger.Debug("Failed to read request",
			slog.String("remote_addr", remoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}

	// Configuration is read fresh per request so changes apply to the next
	// connection, not to streams already running.
	snap := s.store.Streaming()
	defaultFormat, err := audio.ParseFormat(snap.Format)
	if err != nil {
		defaultFormat = audio.FormatFLAC
	}

	path := req.URL.Path
	format, bits, ok := audio.Negotiate(path, defaultFormat, snap.BitsPerSample)
	if !ok {
		s.logger.Info("Unrecognized request",
			slog.String("path", path),
			slog.String("remote_addr", remoteAddr),
		)
		s.metrics.RequestsRejected.Inc()
		s.respondEmpty(conn, remoteAddr, http.StatusNotFound, baseHeaders())
		return
	}

	if format != defaultFormat {
		s.logger.Debug("Request overrides configured format",
			slog.String("configured", defaultFormat.String()),
			slog.String("negotiated", format.String()),
			slog.String("remote_addr", remoteAddr),
		)
	}

	contentType := audio.ContentType(format, bits, s.source.SampleRate)

	switch req.Method {
	case http.MethodGet:
		s.streamResponse(conn, remoteAddr, remoteIP, path, format, bits, contentType, snap.UseWaveFormat)

	case http.MethodHead:
		s.logger.Debug("HEAD request", slog.String("remote_addr", remoteAddr))
		s.respondEmpty(conn, remoteAddr, http.StatusOK, streamingHeaders(contentType))

	case http.MethodPost:
		// Control ping from some renderers; acknowledged without side effects.
		s.logger.Debug("POST request", slog.String("remote_addr", remoteAddr))
		s.respondEmpty(conn, remoteAddr, http.StatusOK, baseHeaders())

	default:
		headers := append(baseHeaders(), header{"Allow", "GET, HEAD, POST"})
		s.respondEmpty(conn, remoteAddr, http.StatusMethodNotAllowed, headers)
	}
}

// streamResponse registers a session and bridges its channel stream into the
// response body until the renderer disconnects or a write fails. Cleanup
// (deregistration, stream stop, Ended feedback) runs exactly once on every
// exit path.
func (s *StreamingServer) streamResponse(
	conn net.Conn,
	remoteAddr, remoteIP, path string,
	format audio.Format,
	bits int,
	contentType string,
	useWave bool,
) {
	s.logger.Info("Received streaming request",
		slog.String("path", path),
		slog.String("remote_addr", remoteAddr),
		slog.String("format", format.String()),
		slog.Int("bits_per_sample", bits),
		slog.Int("sample_rate", s.source.SampleRate),
	)

	channelStream := audio.NewChannelStream(remoteIP, useWave, s.source.SampleRate, bits, format)
	session := &stream.Session{
		ID:            uuid.New(),
		RemoteAddr:    remoteAddr,
		RemoteIP:      remoteIP,
		Format:        format,
		BitsPerSample: bits,
		StartTime:     time.Now(),
		Stream:        channelStream,
	}

	count := s.registry.Add(session)
	s.logger.Debug("Streaming client registered", slog.Int("clients", count))
	s.metrics.ActiveSessions.Set(float64(count))
	s.metrics.SessionsStarted.Inc()
	s.metrics.NegotiatedFormats.WithLabelValues(format.String()).Inc()

	s.feedback.Notify(stream.Event{RemoteIP: remoteIP, State: stream.StateStarted})

	// The advertised length is a sentinel: the stream is unbounded, and a
	// huge fixed Content-Length keeps the transfer out of chunked encoding,
	// which some renderers cannot parse.
	headers := append(streamingHeaders(contentType),
		header{"Content-Length", strconv.FormatUint(audio.ContentLength(format), 10)},
	)

	var written int64
	err := writeResponseHead(conn, http.StatusOK, headers, false)
	if err == nil {
		written, err = io.Copy(conn, channelStream)
		s.metrics.BytesStreamed.Add(float64(written))
	}
	if err != nil {
		s.metrics.WriteErrors.Inc()
		s.logger.Info("Streaming connection terminated",
			slog.String("remote_addr", remoteAddr),
			slog.String("error", err.Error()),
		)
	}

	count, _ = s.registry.Remove(remoteAddr)
	s.metrics.ActiveSessions.Set(float64(count))
	s.metrics.SessionsEnded.Inc()

	s.feedback.Notify(stream.Event{RemoteIP: remoteIP, State: stream.StateEnded})

	s.logger.Info("Streaming ended",
		slog.String("remote_addr", remoteAddr),
		slog.Int64("bytes_streamed", written),
		slog.Int("clients", count),
	)
}

// respondEmpty writes a bodyless response. Write failures are logged and the
// connection is simply dropped.
func (s *StreamingServer) respondEmpty(conn net.Conn, remoteAddr string, status int, headers []header) {
	if err := writeResponseHead(conn, status, headers, true); err != nil {
		s.logger.Info("Response write terminated",
			slog.String("remote_addr", remoteAddr),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
}

// writeResponseHead writes the status line and headers directly to the
// socket. emptyBody adds Content-Length: 0 for bodyless responses.
func writeResponseHead(w io.Writer, status int, headers []header, emptyBody bool) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	for _, h := range headers {
		fmt.Fprintf(bw, "%s: %s\r\n", h.name, h.value)
	}
	if emptyBody {
		fmt.Fprintf(bw, "Content-Length: 0\r\n")
	}
	fmt.Fprintf(bw, "\r\n")

	return bw.Flush()
}

// baseHeaders is the header set every response carries: product identity,
// one response per connection, and no range support (renderers must treat
// the resource as unseekable).
func baseHeaders() []header {
	return []header{
		{"Server", serverIdentity},
		{"icy-name", icyName},
		{"Connection", "close"},
		{"Accept-Ranges", "none"},
	}
}

// streamingHeaders extends the base set with the negotiated content type and
// the DLNA marker renderers need to treat the body as a live stream.
func streamingHeaders(contentType string) []header {
	return append(baseHeaders(),
		header{"Content-Type", contentType},
		header{"TransferMode.dlna.org", "Streaming"},
	)
}

// bareIP strips the port from an addr:port string for feedback and logging.
func bareIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
