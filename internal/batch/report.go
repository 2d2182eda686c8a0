package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ReportConfig describes how a batch was run.
type ReportConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	InputPath string `yaml:"inputpath"`
	Sample    int    `yaml:"sample"`
	Timestamp string `yaml:"timestamp"`
}

// Summary aggregates entries by mode.
type Summary struct {
	Total  int            `yaml:"total"`
	Errors int            `yaml:"errors"`
	Modes  map[string]int `yaml:"modes"`
}

// Report is the YAML document written for a batch run.
type Report struct {
	Config  ReportConfig `yaml:"config"`
	Summary Summary      `yaml:"summary"`
	Results []Entry      `yaml:"results"`
}

// Summarize counts entries per mode.
func Summarize(entries []Entry) Summary {
	s := Summary{Total: len(entries), Modes: make(map[string]int)}
	for _, e := range entries {
		s.Modes[e.Mode]++
		if e.Error != "" {
			s.Errors++
		}
	}
	return s
}

// SaveToYAML writes the report into dir as <timestamp>.yaml and returns the path.
func SaveToYAML(dir string, cfg ReportConfig, entries []Entry) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	report := Report{
		Config:  cfg,
		Summary: Summarize(entries),
		Results: entries,
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	filename := filepath.Join(dir, cfg.Timestamp+".yaml")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return filename, nil
}
