package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/logger"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/mola"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/persistence/indexdb"
	persistlog "github.com/ProgramComputer/MarsInterloper-sub000/internal/persistence/log"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/terrain"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/tuning"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/world"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		seed       = flag.Int64("seed", 0, "terrain seed (0: use tuning value)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (empty: built-in defaults)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		molaURL    = flag.String("mola_url", "", "elevation service base url (empty: procedural terrain)")
		record     = flag.Bool("record", false, "write the per-tick journal")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite telemetry index")
		logLevel   = flag.String("log_level", "info", "log level (debug|info|warn|error)")
		logFile    = flag.String("log_file", "", "optional rotating log file path")
	)
	flag.Parse()

	log, err := logger.New(*logLevel, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := loadTuning(*tuningPath)
	if err != nil {
		log.Fatal("load tuning", zap.Error(err))
	}
	if *seed != 0 {
		cfg.Terrain.Seed = *seed
	}

	ctx, cancel := signalContext()
	defer cancel()

	field := buildField(ctx, cfg, *molaURL, log)
	w := world.New(cfg, field, log.Named("world"))

	if *record {
		journal := persistlog.NewTickJournal(*dataDir)
		defer journal.Close()
		w.SetRecorder(journal)
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "telemetry.db"))
		if err != nil {
			log.Fatal("open telemetry index", zap.Error(err))
		}
		defer idx.Close()
		_ = idx.SetMeta("seed", fmt.Sprintf("%d", cfg.Terrain.Seed))
		w.SetTelemetry(idx)
	}

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			log.Error("world stopped", zap.Error(err))
		}
	}()

	mux := http.NewServeMux()
	healthz := func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	}
	mux.HandleFunc("/healthz", healthz)
	mux.HandleFunc("/health", healthz)
	mux.HandleFunc("/metrics", metricsHandler(w, idx))
	registerTerrainAPI(mux, w)

	if envBool("MI_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, log.Named("ws")).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	log.Info("listening", zap.String("addr", *addr), zap.Int64("seed", cfg.Terrain.Seed))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("serve", zap.Error(err))
	}
}

func loadTuning(path string) (tuning.Tuning, error) {
	if strings.TrimSpace(path) == "" {
		return tuning.Default(), nil
	}
	return tuning.Load(path)
}

// buildField prefers real elevation data when a service url is given and
// falls back to the procedural field when the fetch or the data itself is
// unusable. The server must come up either way.
func buildField(ctx context.Context, cfg tuning.Tuning, molaURL string, log *zap.Logger) terrain.Field {
	procedural := terrain.NewProcedural(cfg.Terrain.Seed, cfg.Terrain.TargetMaxHeight)
	if strings.TrimSpace(molaURL) == "" {
		return procedural
	}

	// Cover the full load neighborhood around the spawn origin, with slack
	// for roaming.
	span := cfg.Chunks.Size * float64(cfg.Chunks.LoadRadius*4+2) / cfg.Terrain.UnitsPerDegree
	client := mola.NewClient(molaURL, log.Named("mola"))
	fctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	patch, err := client.FetchPatch(fctx,
		cfg.Terrain.OriginLat-span/2, cfg.Terrain.OriginLat+span/2,
		cfg.Terrain.OriginLon-span/2, cfg.Terrain.OriginLon+span/2,
		256)
	if err != nil {
		log.Warn("elevation fetch failed, using procedural terrain", zap.Error(err))
		return procedural
	}

	ds, err := datasetFromPatch(cfg, patch, procedural, span)
	if err != nil {
		log.Warn("elevation data unusable, using procedural terrain", zap.Error(err))
		return procedural
	}
	log.Info("terrain dataset loaded",
		zap.Int("width", patch.Width),
		zap.Int("height", patch.Height),
		zap.String("source", patch.DataSource),
		zap.Float32("raw_min", ds.RawMin),
		zap.Float32("raw_max", ds.RawMax))
	return ds
}

// datasetFromPatch maps a fetched elevation patch onto the world rectangle
// centered on the origin. The elevation service sends rows south to north
// (row 0 at minLat), while grid rows run with z, which grows southward, so
// the row order is reversed before the grid is built.
func datasetFromPatch(cfg tuning.Tuning, patch *mola.Patch, fallback terrain.Field, span float64) (*terrain.Dataset, error) {
	flipped := make([]float32, len(patch.Elevation))
	for j := 0; j < patch.Height; j++ {
		copy(flipped[(patch.Height-1-j)*patch.Width:(patch.Height-j)*patch.Width],
			patch.Elevation[j*patch.Width:(j+1)*patch.Width])
	}
	half := span / 2 * cfg.Terrain.UnitsPerDegree
	return terrain.NewDataset(flipped, patch.Width, patch.Height,
		-half, -half, half, half,
		cfg.Terrain.SanityThreshold, cfg.Terrain.TargetMaxHeight, fallback)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
