package config

import "sort"

var Presets = map[string]*Config{
	"homogeneous": {
		Rows: 100, Cols: 100, Spacing: 5.0,
		Padding: 50, Taper: 0.007, Iterations: 400,
		Model: ModelConfig{Velocity: 1500},
		Sources: []SourceConfig{
			{Row: 50, Col: 50, Wavelet: "ricker", Amp: 1.0, FCut: 40.0},
		},
	},
	"layered": {
		Rows: 150, Cols: 200, Spacing: 5.0,
		Padding: 50, Taper: 0.007, Iterations: 600,
		Model: ModelConfig{Layers: []LayerConfig{
			{Rows: 50, Velocity: 1500},
			{Rows: 50, Velocity: 2500},
			{Rows: 50, Velocity: 3500},
		}},
		Sources: []SourceConfig{
			{Row: 5, Col: 100, Wavelet: "ricker", Amp: 1.0, FCut: 30.0},
		},
	},
	"crosswell": {
		Rows: 200, Cols: 120, Spacing: 2.5,
		Padding: 50, Taper: 0.007, Iterations: 800,
		Model: ModelConfig{Layers: []LayerConfig{
			{Rows: 80, Velocity: 2000},
			{Rows: 40, Velocity: 3000},
			{Rows: 80, Velocity: 2400},
		}},
		Sources: []SourceConfig{
			{Row: 100, Col: 5, Wavelet: "gaussian", Amp: 1.0, FCut: 60.0},
		},
	},
	"quick": {
		Rows: 40, Cols: 40, Spacing: 5.0,
		Padding: 20, Taper: 0.01, Iterations: 150,
		Model: ModelConfig{Velocity: 1500},
		Sources: []SourceConfig{
			{Row: 20, Col: 20, Wavelet: "ricker", Amp: 1.0, FCut: 60.0},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil. Callers may
// modify the result freely.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	out := *cfg
	out.Model.Layers = append([]LayerConfig(nil), cfg.Model.Layers...)
	out.Sources = append([]SourceConfig(nil), cfg.Sources...)
	return &out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
