package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/logger"
	"github.com/san-kum/ctrlsim/internal/optim"
	"github.com/san-kum/ctrlsim/internal/scenario"
	"github.com/san-kum/ctrlsim/internal/storage"
)

var log = logger.New("automation")

var (
	ErrNoRuns        = errors.New("automation: batch has no runs")
	ErrUnknownGain   = errors.New("automation: unknown gain")
	ErrUnknownPreset = errors.New("automation: unknown preset")
)

// Batch is a scripted sequence of runs loaded from YAML.
type Batch struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Runs        []BatchRun `yaml:"runs"`
}

// BatchRun is a single run in a batch. Gains take precedence over Preset;
// with neither the run uses zero gains. A zero Duration keeps the scenario
// default.
type BatchRun struct {
	Name     string         `yaml:"name"`
	System   string         `yaml:"system"`
	Preset   string         `yaml:"preset"`
	Gains    *control.Gains `yaml:"gains"`
	Duration float64        `yaml:"duration"`
	Save     bool           `yaml:"save"`
}

type BatchResult struct {
	Name   string
	RunID  string
	Output *scenario.Output
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBatch(data)
}

func ParseBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if len(b.Runs) == 0 {
		return nil, ErrNoRuns
	}
	return &b, nil
}

func (r BatchRun) gains() (control.Gains, error) {
	switch {
	case r.Gains != nil:
		return *r.Gains, nil
	case r.Preset != "":
		g, ok := config.GetPreset(r.System, r.Preset)
		if !ok {
			return control.Gains{}, fmt.Errorf("%w: %s/%s", ErrUnknownPreset, r.System, r.Preset)
		}
		return g, nil
	}
	return control.Gains{}, nil
}

// RunBatch executes the runs in order and stops at the first failure,
// returning the results completed so far. Runs marked Save are written to
// store when it is non-nil.
func RunBatch(ctx context.Context, b *Batch, store *storage.Store) ([]BatchResult, error) {
	results := make([]BatchResult, 0, len(b.Runs))

	for i, run := range b.Runs {
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", run.System, i+1)
		}
		log.Info("running step %d/%d: %s", i+1, len(b.Runs), name)

		st, err := scenario.ParseSystemType(run.System)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		sc, err := scenario.Lookup(st)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if run.Duration > 0 {
			sc.Duration = run.Duration
		}

		g, err := run.gains()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		out, err := sc.Run(ctx, g)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		res := BatchResult{Name: name, Output: out}
		if run.Save && store != nil {
			id, err := store.Save(out, sc.Dt, sc.Duration)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			res.RunID = id
		}
		results = append(results, res)
	}

	return results, nil
}

// Sweep varies one gain over [Min, Max] in Steps points, holding the
// others at Base.
type Sweep struct {
	System scenario.SystemType
	Param  string
	Base   control.Gains
	Min    float64
	Max    float64
	Steps  int
}

type SweepResult struct {
	Value   float64            `json:"value"`
	Gains   control.Gains      `json:"gains"`
	Final   float64            `json:"final"`
	Metrics map[string]float64 `json:"metrics"`
}

func setGain(g control.Gains, name string, v float64) (control.Gains, error) {
	switch name {
	case "kp":
		g.Kp = v
	case "ki":
		g.Ki = v
	case "kd":
		g.Kd = v
	default:
		return g, fmt.Errorf("%w: %q", ErrUnknownGain, name)
	}
	return g, nil
}

func RunSweep(ctx context.Context, sw Sweep) ([]SweepResult, error) {
	if sw.Steps < 1 {
		return nil, fmt.Errorf("automation: sweep needs at least one step, got %d", sw.Steps)
	}
	if _, err := setGain(sw.Base, sw.Param, 0); err != nil {
		return nil, err
	}
	sc, err := scenario.Lookup(sw.System)
	if err != nil {
		return nil, err
	}

	values := optim.Linspace(sw.Min, sw.Max, sw.Steps)
	results := make([]SweepResult, 0, len(values))

	for i, v := range values {
		g, _ := setGain(sw.Base, sw.Param, v)
		out, err := sc.Run(ctx, g)
		if err != nil {
			return results, err
		}

		results = append(results, SweepResult{
			Value:   v,
			Gains:   g,
			Final:   out.Response[len(out.Response)-1],
			Metrics: out.Metrics,
		})
		log.Debug("sweep %d/%d: %s=%.4f", i+1, len(values), sw.Param, v)
	}

	return results, nil
}
