package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/erksrn/internal/integrators"
	"github.com/san-kum/erksrn/internal/physics"
)

const (
	DefaultDt      = 0.05
	DefaultSteps   = 200
	DefaultCells   = 16
	DefaultSeed    = 1
	DefaultDataDir = ".erksrn"

	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

type Config struct {
	Seed    uint64        `yaml:"seed"`
	Cells   int           `yaml:"cells"`
	Dt      float64       `yaml:"dt"`
	Steps   int           `yaml:"steps"`
	Solver  string        `yaml:"solver"`
	Mode    string        `yaml:"mode"`
	Workers int           `yaml:"workers"`
	DataDir string        `yaml:"data_dir"`
	Params  ParamsConfig  `yaml:"params"`
	Initial InitialConfig `yaml:"initial"`
	Logging LoggingConfig `yaml:"logging"`
}

// ParamsConfig holds the values the harness writes into every cell's data
// each step, standing in for the mechanics and velocity collaborators.
type ParamsConfig struct {
	Area     float64 `yaml:"area"`
	Tau      float64 `yaml:"tau"`
	Alpha    float64 `yaml:"alpha"`
	Beta     float64 `yaml:"beta"`
	EtaStd   float64 `yaml:"eta_std"`
	DtOde    float64 `yaml:"dt_ode"`
	ThetaVi  float64 `yaml:"theta_vi"`
	K        float64 `yaml:"k"`
	AreaAmp  float64 `yaml:"area_amplitude"`
	AreaFreq float64 `yaml:"area_frequency"`
}

// Physics returns the model parameters, leaving out the area oscillation.
func (p ParamsConfig) Physics() physics.Params {
	return physics.Params{
		CellArea: p.Area,
		Tau:      p.Tau,
		Alpha:    p.Alpha,
		Beta:     p.Beta,
		EtaStd:   p.EtaStd,
		DtOde:    p.DtOde,
		ThetaVi:  p.ThetaVi,
		K:        p.K,
	}
}

// SetPhysics copies model parameters in, keeping the area oscillation.
func (p *ParamsConfig) SetPhysics(m physics.Params) {
	p.Area = m.CellArea
	p.Tau = m.Tau
	p.Alpha = m.Alpha
	p.Beta = m.Beta
	p.EtaStd = m.EtaStd
	p.DtOde = m.DtOde
	p.ThetaVi = m.ThetaVi
	p.K = m.K
}

type InitialConfig struct {
	Theta       float64 `yaml:"theta"`
	ThetaSpread float64 `yaml:"theta_spread"`
	Signal      float64 `yaml:"signal"`
	TargetArea  float64 `yaml:"target_area"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Seed:    DefaultSeed,
		Cells:   DefaultCells,
		Dt:      DefaultDt,
		Steps:   DefaultSteps,
		Solver:  integrators.DefaultSolver,
		Mode:    ModeSequential,
		Workers: 4,
		DataDir: DefaultDataDir,
		Params: ParamsConfig{
			Area:   1.0,
			Tau:    1.0,
			Alpha:  1.0,
			Beta:   1.0,
			EtaStd: 0.1,
			DtOde:  0.01,
		},
		Initial: InitialConfig{
			TargetArea: 1.0,
		},
		Logging: LoggingConfig{Level: "info"},
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
	if c.Cells <= 0 {
		return fmt.Errorf("cells must be positive, got %d", c.Cells)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", c.Steps)
	}
	if c.Mode != ModeSequential && c.Mode != ModeParallel {
		return fmt.Errorf("unknown mode: %s", c.Mode)
	}
	if c.Params.Area <= 0 {
		return fmt.Errorf("area must be positive, got %f", c.Params.Area)
	}
	if c.Params.Tau <= 0 {
		return fmt.Errorf("tau must be positive, got %f", c.Params.Tau)
	}
	if c.Params.DtOde <= 0 {
		return fmt.Errorf("dt_ode must be positive, got %f", c.Params.DtOde)
	}
	if c.Params.EtaStd < 0 {
		return fmt.Errorf("eta_std must not be negative, got %f", c.Params.EtaStd)
	}
	if c.Params.K < 0 {
		return fmt.Errorf("k must not be negative, got %f", c.Params.K)
	}
	if c.Params.AreaAmp < 0 || c.Params.AreaAmp >= c.Params.Area {
		return fmt.Errorf("area_amplitude must be in [0, area), got %f", c.Params.AreaAmp)
	}
	return nil
}

// Duration is the simulated time covered by Steps outer steps.
func (c *Config) Duration() float64 {
	return float64(c.Steps) * c.Dt
}
