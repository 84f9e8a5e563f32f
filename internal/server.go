package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gr72s/self/internal/config"
	"github.com/gr72s/self/internal/db"
	"github.com/gr72s/self/internal/lifting"
	"github.com/gr72s/self/internal/middleware"
	"github.com/gr72s/self/internal/telemetry/metrics"
	"github.com/gr72s/self/internal/telemetry/tracing"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	if err := db.Migrate(ctx, dbPool); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	if err := db.SeedMuscles(ctx, dbPool); err != nil {
		log.Errorf("failed to seed muscle catalog: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("lifting", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "lifting-backend")
	if err != nil {
		return nil, err
	}

	return &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("lifting-router"))

	muscleHandler := lifting.NewMuscleHandler(lifting.NewMuscleRepo(s.dbPool))
	r.HandleFunc("/lifting/muscle", muscleHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-muscle")
	r.HandleFunc("/lifting/muscle/{id}", muscleHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-muscle")
	r.HandleFunc("/lifting/muscle/{id}", muscleHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-muscle")
	r.HandleFunc("/lifting/muscle/list/page/{page}/size/{size}", muscleHandler.HandleList).Methods("GET", "OPTIONS").Name("list-muscles")

	gymHandler := lifting.NewGymHandler(lifting.NewGymRepo(s.dbPool))
	r.HandleFunc("/lifting/gym", gymHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-gym")
	r.HandleFunc("/lifting/gym/{id}", gymHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-gym")
	r.HandleFunc("/lifting/gym/{id}", gymHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-gym")
	r.HandleFunc("/lifting/gym/list/page/{page}/size/{size}", gymHandler.HandleList).Methods("GET", "OPTIONS").Name("list-gyms")

	targetHandler := lifting.NewTargetHandler(lifting.NewTargetRepo(s.dbPool))
	r.HandleFunc("/lifting/target", targetHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-target")
	r.HandleFunc("/lifting/target/{id}", targetHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-target")
	r.HandleFunc("/lifting/target/{id}", targetHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-target")
	r.HandleFunc("/lifting/target/list/page/{page}/size/{size}", targetHandler.HandleList).Methods("GET", "OPTIONS").Name("list-targets")

	exerciseHandler := lifting.NewExerciseHandler(lifting.NewExerciseRepo(s.dbPool))
	r.HandleFunc("/lifting/exercise", exerciseHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-exercise")
	r.HandleFunc("/lifting/exercise/{id}", exerciseHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-exercise")
	r.HandleFunc("/lifting/exercise/{id}", exerciseHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-exercise")
	r.HandleFunc("/lifting/exercise/list/page/{page}/size/{size}", exerciseHandler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")

	routineHandler := lifting.NewRoutineHandler(lifting.NewRoutineRepo(s.dbPool), s.metricsManager)
	r.HandleFunc("/lifting/routine", routineHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-routine")
	r.HandleFunc("/lifting/routine/template", routineHandler.HandleCreateTemplate).Methods("POST", "OPTIONS").Name("new-routine-template")
	r.HandleFunc("/lifting/routine/{id}", routineHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-routine")
	r.HandleFunc("/lifting/routine/{id}", routineHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-routine")
	r.HandleFunc("/lifting/routine/{id}", routineHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-routine")
	r.HandleFunc("/lifting/routine/list/page/{page}/size/{size}", routineHandler.HandleList).Methods("GET", "OPTIONS").Name("list-routines")

	slotHandler := lifting.NewSlotHandler(lifting.NewSlotRepo(s.dbPool))
	r.HandleFunc("/lifting/routine/exercise", slotHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-slot")
	r.HandleFunc("/lifting/slot/{id}", slotHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-slot")
	r.HandleFunc("/lifting/routine/{id}/slots", slotHandler.HandleGetByRoutine).Methods("GET", "OPTIONS").Name("get-routine-slots")

	workoutHandler := lifting.NewWorkoutHandler(lifting.NewWorkoutRepo(s.dbPool), s.metricsManager)
	r.HandleFunc("/lifting/workout", workoutHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/lifting/workout/stop", workoutHandler.HandleStop).Methods("POST", "OPTIONS").Name("stop-workout")
	r.HandleFunc("/lifting/workout/in-process", workoutHandler.HandleFindInProcess).Methods("GET", "OPTIONS").Name("in-process-workout")
	r.HandleFunc("/lifting/workout/{id}", workoutHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	r.HandleFunc("/lifting/workout/{id}", workoutHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/lifting/workout/list/page/{page}/size/{size}", workoutHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("lifting service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
