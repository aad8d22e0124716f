package config

// Presets are named parameter regimes for the harness.
var Presets = map[string]*Config{
	"persistent": {
		Cells: 32, Dt: 0.05, Steps: 400, Mode: ModeSequential,
		Params: ParamsConfig{Area: 1, Tau: 1, Alpha: 1, Beta: 1, EtaStd: 0.3, DtOde: 0.01},
	},
	"aligned": {
		Cells: 32, Dt: 0.05, Steps: 400, Mode: ModeSequential,
		Params:  ParamsConfig{Area: 1, Tau: 1, Alpha: 1, Beta: 1, EtaStd: 0.1, DtOde: 0.01, ThetaVi: 0.5, K: 2},
		Initial: InitialConfig{ThetaSpread: 3.14159, TargetArea: 1},
	},
	"mechanochemical": {
		Cells: 64, Dt: 0.02, Steps: 1000, Mode: ModeParallel, Workers: 4,
		Params:  ParamsConfig{Area: 1, Tau: 5, Alpha: 0.6, Beta: 2, EtaStd: 0.05, DtOde: 0.005, AreaAmp: 0.2, AreaFreq: 0.1},
		Initial: InitialConfig{TargetArea: 1},
	},
}

// GetPreset returns a copy of the named preset with unset fields filled from
// DefaultConfig, or nil when no such preset exists.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Cells = p.Cells
	cfg.Dt = p.Dt
	cfg.Steps = p.Steps
	cfg.Mode = p.Mode
	if p.Workers > 0 {
		cfg.Workers = p.Workers
	}
	cfg.Params = p.Params
	if p.Initial != (InitialConfig{}) {
		cfg.Initial = p.Initial
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
