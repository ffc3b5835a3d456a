package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kwv/floorscan/mesh"
)

const defaultConfigFile = "config.yaml"

// App encapsulates the application state and dependencies
type App struct {
	Config     *mesh.Config
	Log        *mesh.Logger
	Store      mesh.PlanStore
	Tracker    *mesh.StateTracker
	Exporter   *mesh.Exporter
	MQTTClient *mesh.MQTTClient
	Publisher  *mesh.Publisher
	Out        io.Writer

	opts    AppOptions
	formats []mesh.Format
	// savePlans is set by --save and always on in service mode.
	savePlans bool
}

// NewApp creates a new App writing user-facing output to out.
func NewApp(out io.Writer) *App {
	if out == nil {
		out = io.Discard
	}
	return &App{
		Tracker: mesh.NewStateTracker(),
		Out:     out,
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.opts = opts
	a.savePlans = opts.Save
}

// setup loads configuration, applies flag overrides and opens services.
// Fields already set (as in tests) are left alone.
func (a *App) setup() error {
	if a.Config == nil {
		cfg, err := a.loadConfig()
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	if err := a.applyOverrides(); err != nil {
		return err
	}

	if a.Log == nil {
		l, err := mesh.NewLogger(a.Config.Log.Mode)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		a.Log = l
	}
	mesh.SetLogger(a.Log)

	if a.Store == nil {
		store, err := mesh.OpenPlanStore(a.Config.Store)
		if err != nil {
			return fmt.Errorf("opening plan store: %w", err)
		}
		a.Store = store
	}
	if a.Exporter == nil {
		a.Exporter = a.Config.NewExporter()
	}
	return nil
}

// loadConfig reads --config, or config.yaml when it exists, falling back to
// defaults.
func (a *App) loadConfig() (*mesh.Config, error) {
	path := a.opts.ConfigFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return mesh.DefaultConfig(), nil
		}
		path = defaultConfigFile
	}
	cfg, err := mesh.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w (looked at %s)", err, path)
	}
	fmt.Fprintf(a.Out, "Loaded config from %s\n", path)
	return cfg, nil
}

func (a *App) applyOverrides() error {
	cfg := a.Config
	if a.opts.Units != "" {
		units, err := mesh.ParseUnits(a.opts.Units)
		if err != nil {
			return err
		}
		cfg.Units = units
	}
	if a.opts.OutputDir != "" {
		cfg.Export.Dir = a.opts.OutputDir
	}
	if a.opts.Formats != "" {
		formats, err := mesh.ParseFormats(a.opts.Formats)
		if err != nil {
			return err
		}
		names := make([]string, len(formats))
		for i, f := range formats {
			names[i] = string(f)
		}
		cfg.Export.Formats = names
	}
	if a.opts.HttpPort > 0 {
		cfg.HTTP.Port = a.opts.HttpPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	formats, err := cfg.ExportFormats()
	if err != nil {
		return err
	}
	a.formats = formats
	return nil
}

// Close releases the store and the MQTT connection.
func (a *App) Close() {
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn("closing plan store", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// RunExport reconstructs a mesh batch from --input or --fetch and exports
// the resulting plan.
func (a *App) RunExport() error {
	if err := a.setup(); err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	batch, err := a.loadBatch(ctx)
	if err != nil {
		return err
	}
	if a.opts.Dimensions != "" {
		dims, err := mesh.ParseDimensions(a.opts.Dimensions)
		if err != nil {
			return err
		}
		batch.Dimensions = &dims
	}
	if a.opts.Title != "" {
		batch.Title = a.opts.Title
	}

	result, exports, err := a.ProcessBatch(ctx, batch)
	if result != nil {
		a.printScan(result)
	}
	a.printExports(exports)
	return err
}

func (a *App) loadBatch(ctx context.Context) (*mesh.MeshBatch, error) {
	if a.opts.Input != "" {
		batch, err := mesh.LoadMeshBatchFile(a.opts.Input)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", a.opts.Input, err)
		}
		return batch, nil
	}
	if a.opts.FetchURL != "" {
		return mesh.FetchMeshBatchWithContext(ctx, a.opts.FetchURL)
	}
	return nil, fmt.Errorf("no mesh batch given: %w", mesh.ErrMissingInput)
}

// RunSample exports the built-in sample plan.
func (a *App) RunSample() error {
	if err := a.setup(); err != nil {
		return err
	}
	defer a.Close()

	plan := mesh.SamplePlan()
	if a.opts.Title != "" {
		plan = plan.WithTitle(a.opts.Title)
	}

	exports, err := a.finishPlan(context.Background(), plan)
	a.printPlan(plan)
	a.printExports(exports)
	return err
}

// RunList prints every saved plan, newest first.
func (a *App) RunList() error {
	if err := a.setup(); err != nil {
		return err
	}
	defer a.Close()

	plans, err := a.Store.List(context.Background())
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintln(a.Out, "No saved plans")
		return nil
	}
	fmt.Fprintf(a.Out, "%d saved plan(s)\n\n", len(plans))
	for _, plan := range plans {
		fmt.Fprintf(a.Out, "%s  %-24s %s  %s\n",
			plan.ID, plan.Title, plan.Subtitle(a.Config.Units), plan.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

// ProcessBatch runs the reconstruction pipeline for one batch: process,
// record, save, export, publish. The result is returned even when
// reconstruction fails so callers can report the detected features.
func (a *App) ProcessBatch(ctx context.Context, batch *mesh.MeshBatch) (*mesh.ScanResult, []mesh.ExportResult, error) {
	if batch == nil {
		a.Tracker.RecordFailure(mesh.ErrMissingInput)
		return nil, nil, fmt.Errorf("process batch: %w", mesh.ErrMissingInput)
	}

	result, err := mesh.ProcessScan(*batch)
	if err != nil {
		a.Tracker.RecordFailure(err)
		return result, nil, err
	}
	a.Tracker.RecordScan(result)

	exports, err := a.finishPlan(ctx, result.FloorPlan)
	return result, exports, err
}

// finishPlan saves, exports and publishes a finished plan. Export and
// publish failures are logged and returned, but never stop the others.
func (a *App) finishPlan(ctx context.Context, plan *mesh.FloorPlan) ([]mesh.ExportResult, error) {
	var errs []error

	if a.savePlans {
		if err := a.Store.Save(ctx, plan); err != nil {
			a.Log.Error("saving plan failed", "plan", plan.ID, "error", err)
			errs = append(errs, err)
		}
	}

	var exports []mesh.ExportResult
	if len(a.formats) > 0 {
		var err error
		exports, err = a.Exporter.Export(ctx, plan, a.formats)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if a.Publisher != nil {
		if err := a.Publisher.PublishPlan(plan); err != nil {
			a.Log.Warn("publishing plan failed", "plan", plan.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return exports, errors.Join(errs...)
}

// handleScanMessage is the MQTT scan handler used in service mode.
func (a *App) handleScanMessage(topic string, batch *mesh.MeshBatch, err error) {
	if err != nil {
		a.Log.Warn("discarding scan batch", "topic", topic, "error", err)
		a.Tracker.RecordFailure(err)
		return
	}

	result, _, err := a.ProcessBatch(context.Background(), batch)
	if err != nil {
		a.Log.Error("scan pipeline failed", "topic", topic, "error", err)
		return
	}
	a.Log.Info("scan reconstructed",
		"topic", topic,
		"scan", result.ID,
		"plan", result.FloorPlan.ID,
		"summary", result.FloorPlan.Subtitle(a.Config.Units),
	)
}

// RunService runs MQTT and/or HTTP until interrupted.
func (a *App) RunService() error {
	fmt.Fprintln(a.Out, "Starting floorscan service...")
	if err := a.setup(); err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.serve(ctx)
}

// serve starts the configured front ends and blocks until ctx is done.
func (a *App) serve(ctx context.Context) error {
	a.savePlans = true
	config := a.Config

	if a.opts.MqttMode {
		mqttClient, err := mesh.InitMQTT(config, a.handleScanMessage)
		if err != nil {
			return fmt.Errorf("failed to initialize MQTT: %w", err)
		}
		if mqttClient == nil {
			return fmt.Errorf("MQTT broker not configured (set mqtt.broker or MQTT_BROKER)")
		}
		a.MQTTClient = mqttClient
		a.Publisher = mesh.NewPublisher(mqttClient.GetClient(), config.MQTT.PublishPrefix, config.Units)
	}

	var srv *http.Server
	errCh := make(chan error, 1)
	if a.opts.HttpMode {
		srv = &http.Server{
			Addr:              fmt.Sprintf("0.0.0.0:%d", config.HTTP.Port),
			Handler:           newHTTPServer(a),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			a.Log.Info("starting HTTP server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("HTTP server: %w", err)
			}
		}()
	}

	a.printServiceInfo()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	fmt.Fprintln(a.Out, "\nShutting down service...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			a.Log.Warn("HTTP shutdown", "error", shutdownErr)
		}
	}
	fmt.Fprintln(a.Out, "Service stopped")
	return err
}

func (a *App) printServiceInfo() {
	config := a.Config
	fmt.Fprintln(a.Out, "\nService Running")
	fmt.Fprintln(a.Out, "===============")

	if a.opts.MqttMode {
		prefix := config.MQTT.PublishPrefix
		if env := os.Getenv("MQTT_PUBLISH_PREFIX"); env != "" {
			prefix = env
		}
		fmt.Fprintln(a.Out, "\nMQTT:")
		fmt.Fprintln(a.Out, "  Subscribed topics:")
		fmt.Fprintf(a.Out, "    - %s\n", config.MQTT.ScanTopic)
		fmt.Fprintf(a.Out, "  Publishing plans to: %s/plans/{id}\n", prefix)
		fmt.Fprintf(a.Out, "  Latest summary: %s/latest\n", prefix)
	}

	if a.opts.HttpMode {
		fmt.Fprintf(a.Out, "\nHTTP endpoints (port %d):\n", config.HTTP.Port)
		fmt.Fprintln(a.Out, "  GET    /health                       - Health check")
		fmt.Fprintln(a.Out, "  GET    /plans                        - Saved plan summaries")
		fmt.Fprintln(a.Out, "  GET    /plans/{id}                   - Plan as JSON")
		fmt.Fprintln(a.Out, "  GET    /plans/{id}/export/{format}   - Plan in svg, pdf, json, csv, png or geojson")
		fmt.Fprintln(a.Out, "  POST   /scans                        - Reconstruct a mesh batch")
		fmt.Fprintln(a.Out, "  POST   /plans/{id}/rooms             - Add a room")
		fmt.Fprintln(a.Out, "  DELETE /plans/{id}                   - Delete a plan")
	}

	fmt.Fprintln(a.Out, "\nPress Ctrl+C to stop")
}

func (a *App) printScan(result *mesh.ScanResult) {
	counts := mesh.CountByType(result.Features)
	fmt.Fprintf(a.Out, "Scan %s: %d features (%d walls, %d doors, %d windows)\n",
		result.ID, len(result.Features),
		counts[mesh.FeatureWall], counts[mesh.FeatureDoor], counts[mesh.FeatureWindow])
	if result.Dimensions != nil {
		d := result.Dimensions
		u := a.Config.Units
		f := u.LengthFactor()
		fmt.Fprintf(a.Out, "Dimensions: %.2f x %.2f x %.2f %s\n", d.Width*f, d.Length*f, d.Height*f, u.LengthSuffix())
	}
	if result.FloorPlan != nil {
		a.printPlan(result.FloorPlan)
	}
}

func (a *App) printPlan(plan *mesh.FloorPlan) {
	fmt.Fprintf(a.Out, "Plan %q (%s): %s, %s\n",
		plan.Title, plan.ID, plan.Subtitle(a.Config.Units), mesh.SizeLabel(plan.TotalArea()))
}

func (a *App) printExports(exports []mesh.ExportResult) {
	for _, r := range exports {
		if r.Err != nil {
			fmt.Fprintf(a.Out, "  %-8s FAILED: %v\n", r.Format, r.Err)
			continue
		}
		fmt.Fprintf(a.Out, "  %-8s %s\n", r.Format, r.Path)
	}
	if len(exports) > 0 {
		names := make([]string, len(exports))
		for i, r := range exports {
			names[i] = string(r.Format)
		}
		a.Log.Debug("export finished", "formats", strings.Join(names, ","))
	}
}
