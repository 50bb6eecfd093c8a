package config

import "math"

// Presets are ready-made scenarios; each is a complete Config.
var Presets = map[string]*Config{
	"free-particle": {
		Grid:      GridConfig{Dim: 1, NX: 256, NY: 1, LengthX: 2 * math.Pi, PeriodicX: true},
		Time:      TimeConfig{Dt: 1e-3, Iterations: 1000, SnapshotEvery: 100},
		Physics:   PhysicsConfig{Mass: 1},
		Potential: PotentialConfig{Type: "none"},
		InitState: InitStateConfig{Type: "planewave", NX: 1, Norm: 1},
		Procs:     ProcsConfig{PX: 1, PY: 1},
		Output:    OutputConfig{Dir: "runs", Format: "ascii", Tags: []string{"density", "phase"}},
		Kernel:    "cpu",
	},
	"harmonic-2d": {
		Grid:      GridConfig{Dim: 2, NX: 300, NY: 300, LengthX: 15, LengthY: 15},
		Time:      TimeConfig{Dt: 1e-3, Iterations: 160000, SnapshotEvery: 4000},
		Physics:   PhysicsConfig{Mass: 1},
		Potential: PotentialConfig{Type: "harmonic", OmegaX: 1, OmegaY: 1},
		InitState: InitStateConfig{Type: "gaussian", Omega: 1, X0: 1, Norm: 1},
		Procs:     ProcsConfig{PX: 1, PY: 1},
		Output:    OutputConfig{Dir: "runs", Format: "ascii", Tags: []string{"density"}},
		Kernel:    "cpu",
	},
	"ground-state": {
		Grid:      GridConfig{Dim: 2, NX: 128, NY: 128, LengthX: 12, LengthY: 12},
		Time:      TimeConfig{Dt: 1e-3, Iterations: 20000, ImagTime: true, SnapshotEvery: 1000},
		Physics:   PhysicsConfig{Mass: 1},
		Potential: PotentialConfig{Type: "harmonic", OmegaX: 1, OmegaY: 1},
		InitState: InitStateConfig{Type: "noise", Seed: 42, Norm: 1},
		Procs:     ProcsConfig{PX: 1, PY: 1},
		Output:    OutputConfig{Dir: "runs", Format: "ascii", Tags: []string{"density"}},
		Kernel:    "cpu",
	},
	"rabi-flopping": {
		Grid:      GridConfig{Dim: 1, NX: 128, NY: 1, LengthX: 10, PeriodicX: true},
		Time:      TimeConfig{Dt: 1e-3, Iterations: 6284, SnapshotEvery: 314},
		Physics:   PhysicsConfig{Mass: 1},
		Potential: PotentialConfig{Type: "none"},
		InitState: InitStateConfig{Type: "gaussian", Omega: 1, Norm: 1},
		SecondComponent: &SecondComponentConfig{
			Mass:      1,
			OmegaR:    1,
			Potential: PotentialConfig{Type: "none"},
			InitState: InitStateConfig{Type: "gaussian", Omega: 1, Norm: 0},
		},
		Procs:  ProcsConfig{PX: 1, PY: 1},
		Output: OutputConfig{Dir: "runs", Format: "ascii", Tags: []string{"density"}},
		Kernel: "cpu",
	},
	"vortex": {
		Grid:      GridConfig{Dim: 2, NX: 256, NY: 256, LengthX: 20, LengthY: 20},
		Time:      TimeConfig{Dt: 1e-3, Iterations: 12566, SnapshotEvery: 1257},
		Physics:   PhysicsConfig{Mass: 1, AngularVelocity: 0.5},
		Potential: PotentialConfig{Type: "harmonic", OmegaX: 1, OmegaY: 1},
		InitState: InitStateConfig{Type: "gaussian", Omega: 1, X0: 2, Norm: 1},
		Procs:     ProcsConfig{PX: 1, PY: 1},
		Output:    OutputConfig{Dir: "runs", Format: "ascii", Tags: []string{"density", "phase"}},
		Kernel:    "cpu",
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	c.Preset = name
	if p.SecondComponent != nil {
		sc := *p.SecondComponent
		c.SecondComponent = &sc
	}
	return &c
}

// ListPresets returns the preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
