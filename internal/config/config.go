package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 1e-3
	DefaultIterations = 1000
	DefaultMass       = 1.0
	DefaultKernel     = "cpu"
)

type Config struct {
	Preset     string          `yaml:"preset,omitempty"`
	Grid       GridConfig      `yaml:"grid"`
	Time       TimeConfig      `yaml:"time"`
	Physics    PhysicsConfig   `yaml:"physics"`
	Potential  PotentialConfig `yaml:"potential"`
	InitState  InitStateConfig `yaml:"init_state"`
	SecondComponent *SecondComponentConfig `yaml:"second_component,omitempty"`
	Procs      ProcsConfig     `yaml:"procs"`
	Output     OutputConfig    `yaml:"output"`
	Kernel     string          `yaml:"kernel"`
}

type GridConfig struct {
	Dim       int     `yaml:"dim"`
	NX        int     `yaml:"nx"`
	NY        int     `yaml:"ny"`
	LengthX   float64 `yaml:"length_x"`
	LengthY   float64 `yaml:"length_y"`
	PeriodicX bool    `yaml:"periodic_x"`
	PeriodicY bool    `yaml:"periodic_y"`
}

type TimeConfig struct {
	Dt            float64 `yaml:"dt"`
	Iterations    int     `yaml:"iterations"`
	ImagTime      bool    `yaml:"imag_time"`
	SnapshotEvery int     `yaml:"snapshot_every"`
}

type PhysicsConfig struct {
	Mass            float64 `yaml:"mass"`
	Coupling        float64 `yaml:"coupling"`
	AngularVelocity float64 `yaml:"angular_velocity"`
	X0              float64 `yaml:"x0"`
	Y0              float64 `yaml:"y0"`
}

type PotentialConfig struct {
	Type   string  `yaml:"type"` // none | harmonic
	OmegaX float64 `yaml:"omega_x"`
	OmegaY float64 `yaml:"omega_y"`
	X0     float64 `yaml:"x0"`
	Y0     float64 `yaml:"y0"`
}

type InitStateConfig struct {
	Type  string  `yaml:"type"` // gaussian | sinusoid | planewave | noise | file
	Path  string  `yaml:"path,omitempty"`
	Omega float64 `yaml:"omega"`
	X0    float64 `yaml:"x0"`
	Y0    float64 `yaml:"y0"`
	NX    int     `yaml:"nx"`
	NY    int     `yaml:"ny"`
	Norm  float64 `yaml:"norm"`
	Seed  int64   `yaml:"seed"`
}

type SecondComponentConfig struct {
	Mass       float64         `yaml:"mass"`
	Coupling   float64         `yaml:"coupling"`
	CouplingAB float64         `yaml:"coupling_ab"`
	OmegaR     float64         `yaml:"omega_r"`
	OmegaI     float64         `yaml:"omega_i"`
	Potential  PotentialConfig `yaml:"potential"`
	InitState  InitStateConfig `yaml:"init_state"`
}

type ProcsConfig struct {
	PX int `yaml:"px"`
	PY int `yaml:"py"`
}

type OutputConfig struct {
	Dir    string   `yaml:"dir"`
	Format string   `yaml:"format"` // ascii | binary
	Tags   []string `yaml:"tags"`   // density | phase
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Dim: 1, NX: 256, NY: 1,
			LengthX: 20, LengthY: 20,
			PeriodicX: true,
		},
		Time:      TimeConfig{Dt: DefaultDt, Iterations: DefaultIterations, SnapshotEvery: 100},
		Physics:   PhysicsConfig{Mass: DefaultMass},
		Potential: PotentialConfig{Type: "none"},
		InitState: InitStateConfig{Type: "gaussian", Omega: 1, Norm: 1},
		Procs:     ProcsConfig{PX: 1, PY: 1},
		Output:    OutputConfig{Dir: "runs", Format: "ascii", Tags: []string{"density"}},
		Kernel:    DefaultKernel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Grid.Dim != 1 && c.Grid.Dim != 2 {
		return fmt.Errorf("config: dim must be 1 or 2, got %d", c.Grid.Dim)
	}
	if c.Grid.NX <= 0 || (c.Grid.Dim == 2 && c.Grid.NY <= 0) {
		return fmt.Errorf("config: grid size must be positive")
	}
	if c.Time.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Time.Dt)
	}
	if c.Time.Iterations <= 0 {
		return fmt.Errorf("config: iterations must be positive, got %d", c.Time.Iterations)
	}
	if c.Physics.Mass <= 0 {
		return fmt.Errorf("config: mass must be positive, got %g", c.Physics.Mass)
	}
	if c.SecondComponent != nil && c.SecondComponent.Mass <= 0 {
		return fmt.Errorf("config: second-component mass must be positive, got %g", c.SecondComponent.Mass)
	}
	if c.Procs.PX <= 0 || c.Procs.PY <= 0 {
		return fmt.Errorf("config: process grid must be positive, got %dx%d", c.Procs.PX, c.Procs.PY)
	}
	if c.Grid.Dim == 1 && c.Procs.PY != 1 {
		return fmt.Errorf("config: 1-D runs need py=1, got %d", c.Procs.PY)
	}
	switch c.Kernel {
	case "cpu", "gpu":
	default:
		return fmt.Errorf("config: unknown kernel %q", c.Kernel)
	}
	return nil
}
