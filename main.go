package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions carries the parsed command line.
type AppOptions struct {
	ConfigFile string
	Input      string
	FetchURL   string
	Dimensions string
	Title      string
	Formats    string
	OutputDir  string
	Units      string
	Sample     bool
	List       bool
	Save       bool
	MqttMode   bool
	HttpMode   bool
	HttpPort   int
}

// Runner is the set of modes main can dispatch to.
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunExport() error
	RunSample() error
	RunList() error
	RunService() error
}

func main() {
	app := NewApp(os.Stdout)
	if err := run(os.Args[1:], os.Stdout, app); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "floorscan: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and dispatches to the selected mode. Exactly one mode
// runs: --list, --sample, an --input/--fetch export, or the service when
// --mqtt or --http is given.
func run(args []string, out io.Writer, app Runner) error {
	fs := flag.NewFlagSet("floorscan", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to configuration file (default config.yaml when present)")
	fs.StringVar(&opts.Input, "input", "", "Mesh batch file to reconstruct (JSON, zlib or gzip)")
	fs.StringVar(&opts.FetchURL, "fetch", "", "URL to fetch a mesh batch from")
	fs.StringVar(&opts.Dimensions, "dimensions", "", "Room dimensions WxLxH in meters, overriding the derived ones")
	fs.StringVar(&opts.Title, "title", "", "Plan title")
	fs.StringVar(&opts.Formats, "formats", "", "Comma-separated export formats: svg,pdf,json,csv,png,geojson")
	fs.StringVar(&opts.OutputDir, "output-dir", "", "Directory for exported files")
	fs.StringVar(&opts.Units, "units", "", "Display units: metric or imperial")
	fs.BoolVar(&opts.Sample, "sample", false, "Export the built-in sample plan")
	fs.BoolVar(&opts.List, "list", false, "List saved plans and exit")
	fs.BoolVar(&opts.Save, "save", false, "Save the generated plan to the plan store")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Run MQTT service mode: reconstruct scans from the scan topic")
	fs.BoolVar(&opts.HttpMode, "http", false, "Enable HTTP server for plans and exports")
	fs.IntVar(&opts.HttpPort, "http-port", 0, "HTTP server port (default from config, 8080)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "floorscan version: %s\n", Version)
	app.ApplyOptions(opts)

	switch {
	case opts.List:
		return app.RunList()
	case opts.Sample:
		return app.RunSample()
	case opts.Input != "" || opts.FetchURL != "":
		return app.RunExport()
	case opts.MqttMode || opts.HttpMode:
		return app.RunService()
	}

	fmt.Fprintln(out, "Nothing to do.")
	fmt.Fprintln(out, "Use --input=scan.json to reconstruct a mesh batch and export the plan")
	fmt.Fprintln(out, "Use --fetch=URL to fetch a mesh batch over HTTP")
	fmt.Fprintln(out, "Use --sample to export the sample plan")
	fmt.Fprintln(out, "Use --list to list saved plans")
	fmt.Fprintln(out, "Use --mqtt and/or --http to run the service")
	return nil
}
