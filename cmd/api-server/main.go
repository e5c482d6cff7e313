package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/evnavlabs/evnav-simulator/core"
	"github.com/evnavlabs/evnav-simulator/internal/api"
	"github.com/evnavlabs/evnav-simulator/internal/logging"
	"github.com/evnavlabs/evnav-simulator/internal/observability"
	"github.com/evnavlabs/evnav-simulator/model"
	"github.com/evnavlabs/evnav-simulator/traffic"
)

// Config carries everything run needs, so tests can start the server
// on an ephemeral listener without touching flags or the environment.
type Config struct {
	HTTPAddress    string
	MetricsAddress string
	VehiclesPath   string
	NetworkPath    string
	TrafficPattern bool
	PatternTick    time.Duration
	PatternStep    time.Duration
	PlanTimeout    time.Duration
}

func main() {
	httpAddr := flag.String("http-addr", ":8080", "TCP address the HTTP API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	vehiclesPath := flag.String("vehicles", "configs/vehicles.json", "Path to a JSON vehicle catalog overlaying the built-in presets")
	networkPath := flag.String("network", "", "Path to a road network JSON file; empty uses the built-in demo city")
	trafficPattern := flag.Bool("traffic-pattern", false, "Drive global traffic intensity from the built-in day pattern")
	patternTick := flag.Duration("pattern-tick", time.Second, "Wall-clock interval between traffic pattern updates")
	patternStep := flag.Duration("pattern-step", 10*time.Minute, "Simulated time advanced per pattern update")
	planTimeout := flag.Duration("plan-timeout", 10*time.Second, "Per-request route search budget")
	flag.Parse()

	// Load .env before the logger so LOG_LEVEL and friends take effect.
	envErr := godotenv.Load()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if envErr != nil {
		log.Debug(ctx, "no .env file loaded", logging.Err(envErr))
	}

	cfg := Config{
		HTTPAddress:    *httpAddr,
		MetricsAddress: *metricsAddr,
		VehiclesPath:   *vehiclesPath,
		NetworkPath:    *networkPath,
		TrafficPattern: *trafficPattern,
		PatternTick:    *patternTick,
		PatternStep:    *patternStep,
		PlanTimeout:    *planTimeout,
	}

	lis, err := net.Listen("tcp", cfg.HTTPAddress)
	if err != nil {
		log.Error(ctx, "failed to listen", logging.String("addr", cfg.HTTPAddress), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

// run assembles the server stack and serves on lis until ctx is
// cancelled. It owns the full lifecycle: tracing, metrics, the traffic
// pattern driver, and graceful HTTP shutdown.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	gin.SetMode(gin.ReleaseMode)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewPlannerCollector(nil)
	if err != nil {
		return err
	}
	metricsSrv := serveMetrics(cfg.MetricsAddress, collector, log)

	network, err := loadNetwork(ctx, log, cfg.NetworkPath)
	if err != nil {
		return err
	}

	vehicles := model.VehiclePresets()
	loadVehicleOverlay(ctx, log, vehicles, cfg.VehiclesPath)
	collector.SetVehicleCount(len(vehicles))

	trafficModel := traffic.NewModel(0)
	unsubscribe := trafficModel.Subscribe(func(traffic.Event) {
		collector.SetTrafficState(trafficModel.Intensity(), len(trafficModel.BlockedConnections()))
	})
	defer unsubscribe()
	collector.SetTrafficState(trafficModel.Intensity(), len(trafficModel.BlockedConnections()))

	if cfg.TrafficPattern {
		driverCollector, err := observability.NewDriverCollector(nil)
		if err != nil {
			return err
		}
		driver := traffic.NewPatternDriver(
			trafficModel, traffic.DefaultDayPattern(), time.Now(), cfg.PatternTick, cfg.PatternStep,
			traffic.WithTickObserver(func(simTime time.Time, _ float64, elapsed time.Duration) {
				driverCollector.ObserveTick(simTime, elapsed)
			}),
		)
		driver.Start()
		defer driver.Stop()
		log.Info(ctx, "traffic pattern driver running",
			logging.String("tick", cfg.PatternTick.String()),
			logging.String("sim_step", cfg.PatternStep.String()),
		)
	}

	server := api.NewServer(network, vehicles, trafficModel,
		api.WithLogger(log),
		api.WithCollector(collector),
		api.WithPlanTimeout(cfg.PlanTimeout),
	)

	httpSrv := &http.Server{Handler: server.Router()}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()
	log.Info(ctx, "starting HTTP API server", logging.String("addr", lis.Addr().String()))

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "HTTP shutdown incomplete", logging.Err(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func serveMetrics(addr string, collector *observability.PlannerCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// loadNetwork returns the demo city when no path is configured. A
// configured path that fails to load is fatal; serving a planner with
// no network helps nobody.
func loadNetwork(ctx context.Context, log logging.Logger, path string) (*core.RoadNetwork, error) {
	if path == "" {
		network := core.DemoCity()
		log.Info(ctx, "using built-in demo city",
			logging.Int("locations", network.NumLocations()),
			logging.Int("connections", network.NumConnections()),
		)
		return network, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	network, summary, err := core.LoadRoadNetwork(f)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "loaded road network",
		logging.String("path", path),
		logging.String("name", summary.Name),
		logging.Int("locations", summary.Locations),
		logging.Int("connections", summary.Connections),
		logging.Int("chargers", summary.Chargers),
		logging.Int("derived_distances", summary.DerivedDistances),
	)
	return network, nil
}

// loadVehicleOverlay merges a catalog file over the built-in presets.
// A missing or malformed file is logged and skipped; the presets are
// enough to serve with.
func loadVehicleOverlay(ctx context.Context, log logging.Logger, catalog map[string]model.Vehicle, path string) {
	if path == "" || catalog == nil {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn(ctx, "skipping vehicle catalog overlay", logging.String("path", path), logging.Err(err))
		return
	}
	defer f.Close()

	vehicles, err := model.LoadVehicles(f)
	if err != nil {
		log.Warn(ctx, "failed to parse vehicle catalog", logging.String("path", path), logging.Err(err))
		return
	}

	for _, v := range vehicles {
		catalog[v.ID] = v
	}
	log.Info(ctx, "loaded vehicle catalog overlay",
		logging.String("path", path),
		logging.Int("count", len(vehicles)),
	)
}
