// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mcp-drink-rec/internal/config"
	"mcp-drink-rec/internal/dataset"
	"mcp-drink-rec/internal/logger"
	"mcp-drink-rec/internal/metrics"
	"mcp-drink-rec/internal/models"
	"mcp-drink-rec/internal/recommend"
	"mcp-drink-rec/internal/storage"
)

// errInvalidParams marks caller mistakes that map to 400.
var errInvalidParams = errors.New("invalid parameters")

type toolHandler func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type DrinkRecServer struct {
	info           protocol.Implementation
	httpServer     *http.Server
	storage        *storage.SQLiteStorage
	samplingClient *SamplingClient
	metrics        *metrics.Metrics
	config         *config.Config
	tools          map[string]toolHandler

	// drinks is loaded once and only read afterwards.
	drinks []models.Drink
}

// NewDrinkRecServer opens the store, loads the catalogue and wires the HTTP
// handlers. reg may be nil to use the global Prometheus registry.
func NewDrinkRecServer(ctx context.Context, cfg *config.Config, reg *prometheus.Registry) (*DrinkRecServer, error) {
	stor, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	s := &DrinkRecServer{
		info: protocol.Implementation{
			Name:    "drink-rec",
			Version: "1.0.0",
		},
		storage:        stor,
		samplingClient: NewSamplingClient(cfg.Gateway),
		metrics:        metrics.New(registerer),
		config:         cfg,
	}

	if err := s.loadCatalog(ctx); err != nil {
		stor.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	s.registerTools()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHTTP)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// loadCatalog imports catalog_path when the store is empty, then keeps the
// stored drinks in memory.
func (s *DrinkRecServer) loadCatalog(ctx context.Context) error {
	n, err := s.storage.CountDrinks(ctx)
	if err != nil {
		return err
	}

	if n == 0 && s.config.CatalogPath != "" {
		if _, err := ImportCatalog(ctx, s.storage, s.config.CatalogPath); err != nil {
			return err
		}
	}

	drinks, err := s.storage.ListDrinks(ctx)
	if err != nil {
		return err
	}
	if len(drinks) == 0 {
		logger.Warnf("catalog is empty; set catalog_path or run the import command")
	}

	s.drinks = drinks
	s.metrics.SetCatalogSize(len(drinks))
	logger.Infof("loaded %d drinks", len(drinks))
	return nil
}

// ImportCatalog replaces the stored catalogue with the CSV at path.
func ImportCatalog(ctx context.Context, stor *storage.SQLiteStorage, path string) (*dataset.Report, error) {
	report, err := dataset.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := stor.ReplaceDrinks(ctx, report.Drinks); err != nil {
		return nil, err
	}

	logger.Infof("imported %d of %d catalog rows from %s (%d skipped)",
		len(report.Drinks), report.Rows, path, len(report.Skipped))
	return report, nil
}

// Handler exposes the routes without starting a listener.
func (s *DrinkRecServer) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *DrinkRecServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	switch r.Method {
	case http.MethodOptions:
		return
	case http.MethodGet:
		s.writeJSON(w, map[string]interface{}{
			"server": s.info,
			"tools":  s.toolNames(),
		})
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	handler, ok := s.tools[request.Name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	result, err := handler(r.Context(), &request)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errInvalidParams) || errors.Is(err, recommend.ErrInvalidLevel) {
			status = http.StatusBadRequest
		}
		logger.Warnf("tool %s failed: %v", request.Name, err)
		http.Error(w, err.Error(), status)
		return
	}

	s.writeJSON(w, result)
}

func (s *DrinkRecServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}

func (s *DrinkRecServer) Start(ctx context.Context) error {
	logger.Infof("starting drink recommendation server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *DrinkRecServer) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.storage != nil {
		if cerr := s.storage.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *DrinkRecServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
