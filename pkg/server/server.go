package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	registry "github.com/thingful/retryable-registry-prometheus"
	goji "goji.io"
	"goji.io/pat"
	"google.golang.org/grpc"

	"github.com/helsing-ai/twurst/example/exampleservice"
	rpcserver "github.com/helsing-ai/twurst/server"

	"github.com/helsing-ai/twurst/pkg/metrics"
	"github.com/helsing-ai/twurst/pkg/version"
)

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "twurst",
		Subsystem: "server",
		Name:      "build_info",
		Help:      "Information about the current build of the service",
	}, []string{"name", "version", "build_date"},
)

func init() {
	registry.MustRegister(buildInfo)
}

// Config is a top level config object. Populated by viper in the command
// setup, we then pass down config to the right places.
type Config struct {
	ListenAddr     string
	GrpcListenAddr string
	Verbose        bool
}

// Server is our top level type, containing the Twirp HTTP server and the
// gRPC adapter server, responsible for starting and stopping both in the
// correct order.
type Server struct {
	httpSrv      *http.Server
	grpcSrv      *grpc.Server
	grpcAddr     string
	grpcListener net.Listener
	logger       kitlog.Logger
}

// PulseHandler is the simplest possible handler function - used to expose an
// endpoint which a load balancer can ping to verify that a node is running
// and accepting connections.
func PulseHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok")
	})
}

// requestIDMiddleware stamps every request with an X-Request-Id header,
// generating one if the caller didn't send it.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = fmt.Sprintf("%d", time.Now().UnixNano())
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records a request counter and latency histogram per
// path.
func metricsMiddleware(next http.Handler) http.Handler {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twurst",
		Subsystem: "server",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed, by path.",
	}, []string{"path"})
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "twurst",
		Subsystem: "server",
		Name:      "http_request_duration_seconds",
		Help:      "Histogram of HTTP request durations, by path.",
	}, []string{"path"})
	metrics.MustRegister(counter)
	metrics.MustRegister(histogram)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		counter.WithLabelValues(r.URL.Path).Inc()
		histogram.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// NewServer returns a new Server wired to serve impl over both the Twirp
// HTTP router and the gRPC adapter. Is also responsible for constructing the
// HTTP mux and registering the pulse and metrics endpoints alongside the RPC
// routes.
func NewServer(config *Config, logger kitlog.Logger, impl exampleservice.ExampleService) *Server {
	buildInfo.WithLabelValues(version.BinaryName, version.Version, version.BuildDate)

	logger = kitlog.With(logger, "module", "server")
	logger.Log(
		"msg", "creating server",
		"listenAddr", config.ListenAddr,
		"grpcListenAddr", config.GrpcListenAddr,
	)

	tr := rpcserver.NewRouter(nil)
	exampleservice.Register(tr, impl)

	mux := goji.NewMux()
	mux.Handle(pat.Post("/*"), tr.Build())
	mux.Handle(pat.Get("/pulse"), PulseHandler())
	mux.Handle(pat.Get("/metrics"), promhttp.Handler())

	mux.Use(requestIDMiddleware)
	mux.Use(metricsMiddleware)

	httpSrv := &http.Server{
		Addr:    config.ListenAddr,
		Handler: mux,
	}

	gr := rpcserver.NewGrpcRouter()
	exampleservice.RegisterGrpc(gr, impl)

	return &Server{
		httpSrv:  httpSrv,
		grpcSrv:  gr.Build(),
		grpcAddr: config.GrpcListenAddr,
		logger:   logger,
	}
}

// Start starts the HTTP and gRPC servers running, each on their own
// listener, and blocks until an interrupt signal arrives, at which point it
// shuts both down gracefully.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return errors.Wrap(err, "failed to bind HTTP listener")
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)

	go func() {
		s.logger.Log("msg", "starting HTTP server", "listenAddr", s.httpSrv.Addr)
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Serve(): %s", err)
		}
	}()

	if s.grpcSrv != nil {
		grpcListener, err := net.Listen("tcp", s.grpcAddr)
		if err != nil {
			return errors.Wrap(err, "failed to bind gRPC listener")
		}
		s.grpcListener = grpcListener

		go func() {
			s.logger.Log("msg", "starting gRPC server", "listenAddr", grpcListener.Addr().String())
			if err := s.grpcSrv.Serve(grpcListener); err != nil {
				log.Fatalf("grpc Serve(): %s", err)
			}
		}()
	}

	<-stopChan
	return s.Stop()
}

// Stop shuts down both servers.
func (s *Server) Stop() error {
	s.logger.Log("msg", "stopping")
	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()

	if s.grpcSrv != nil {
		s.grpcSrv.GracefulStop()
	}

	return s.httpSrv.Shutdown(ctx)
}
