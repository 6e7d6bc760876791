package lltfsim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/baileyji/Wavecal-Automation/lltf"
)

// GratingConfig describes one simulated grating.
type GratingConfig struct {
	// Name is the grating name.
	Name string `yaml:"name"`
	// Range is the nominal wavelength range in nm.
	Range lltf.Range `yaml:"range"`
	// ExtendedRange is the extended wavelength range in nm.
	ExtendedRange lltf.Range `yaml:"extended_range"`
}

// Config describes the simulated instrument scenario.
type Config struct {
	// LibraryVersion is the version string the simulated SDK reports.
	LibraryVersion string `yaml:"library_version"`
	// Systems lists the sub-system names, in index order.
	Systems []string `yaml:"systems"`
	// Wavelength is the initial central wavelength in nm.
	Wavelength float64 `yaml:"wavelength"`
	// Range is the valid wavelength range of the connected sub-system in nm.
	Range lltf.Range `yaml:"range"`
	// Gratings lists the gratings, in index order. The grating at index 0 is
	// the selected one.
	Gratings []GratingConfig `yaml:"gratings"`
}

// DefaultConfig returns the scenario of a single LLTF Contrast VIS unit.
func DefaultConfig() *Config {
	return &Config{
		LibraryVersion: "2.3.0",
		Systems:        []string{"LLTF-1"},
		Wavelength:     532.0,
		Range:          lltf.Range{Min: 450.0, Max: 650.0},
		Gratings: []GratingConfig{
			{
				Name:          "VIS",
				Range:         lltf.Range{Min: 450.0, Max: 650.0},
				ExtendedRange: lltf.Range{Min: 400.0, Max: 1000.0},
			},
		},
	}
}

// LoadConfig reads a scenario file in YAML format.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if len(cfg.Systems) == 0 {
		return fmt.Errorf("scenario defines no systems")
	}
	if len(cfg.Gratings) == 0 {
		return fmt.Errorf("scenario defines no gratings")
	}
	if cfg.Range.Min >= cfg.Range.Max {
		return fmt.Errorf("scenario wavelength range [%g, %g] is empty", cfg.Range.Min, cfg.Range.Max)
	}

	return nil
}
