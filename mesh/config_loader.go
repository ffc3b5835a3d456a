package mesh

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Log:   LogConfig{Mode: "development"},
		Units: UnitsMetric,
		Export: ExportConfig{
			Dir:         "exports",
			Formats:     []string{string(FormatSVG), string(FormatPDF), string(FormatJSON), string(FormatCSV)},
			Width:       DefaultCanvasWidth,
			Height:      DefaultCanvasHeight,
			Padding:     DefaultPadding,
			Concurrency: DefaultExportConcurrency,
		},
		Store: StoreConfig{Driver: "file", Path: DefaultPlansFile},
		MQTT: MQTTConfig{
			ScanTopic:     "floorscan/scans",
			PublishPrefix: "floorscan",
			ClientID:      "floorscan",
		},
		HTTP: HTTPConfig{Port: 8080},
	}
}

// LoadConfig loads the configuration from a YAML file. Keys missing from
// the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := ParseUnits(string(c.Units)); err != nil {
		return fmt.Errorf("units: %w", err)
	}
	for i, f := range c.Export.Formats {
		if _, err := ParseFormat(f); err != nil {
			return fmt.Errorf("export.formats[%d]: %w", i, err)
		}
	}
	if c.Export.Width < 0 || c.Export.Height < 0 {
		return fmt.Errorf("export.width and export.height must not be negative")
	}
	if c.Export.Padding < 0 {
		return fmt.Errorf("export.padding must not be negative")
	}
	if c.Export.Width > 0 && c.Export.Padding*2 >= c.Export.Width {
		return fmt.Errorf("export.padding %.0f leaves no drawable width", c.Export.Padding)
	}
	if c.Export.Height > 0 && c.Export.Padding*2 >= c.Export.Height {
		return fmt.Errorf("export.padding %.0f leaves no drawable height", c.Export.Padding)
	}
	switch c.Store.Driver {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("store.driver %q must be file or sqlite", c.Store.Driver)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// RenderOptions builds encoder options from the export and units settings.
func (c *Config) RenderOptions() RenderOptions {
	return RenderOptions{
		Canvas:  CanvasSize{Width: c.Export.Width, Height: c.Export.Height},
		Padding: c.Export.Padding,
		Units:   c.Units,
	}.withDefaults()
}

// ExportFormats parses the configured format names.
func (c *Config) ExportFormats() ([]Format, error) {
	if len(c.Export.Formats) == 0 {
		return AllFormats(), nil
	}
	formats := make([]Format, 0, len(c.Export.Formats))
	for _, name := range c.Export.Formats {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// NewExporter creates an exporter configured from the export section.
func (c *Config) NewExporter() *Exporter {
	e := NewExporter(c.Export.Dir)
	e.Render = c.RenderOptions()
	if c.Export.Concurrency > 0 {
		e.Concurrency = c.Export.Concurrency
	}
	return e
}
