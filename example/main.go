// FILE: lixenwraith/wiring/example/main.go
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lixenwraith/wiring"
)

// Dataset yields training data.
type Dataset interface {
	Samples() (x, y []float64)
}

// Model predicts a value from a single input.
type Model interface {
	Fit(x, y []float64) error
	Predict(x float64) float64
}

// Persister stores fitted models under a name.
type Persister interface {
	Write(name string, m Model) error
	Read(name string) (Model, error)
}

// StaticDataset holds samples listed in the configuration.
type StaticDataset struct {
	wiring.Tagged
	x, y []float64
}

type staticDatasetOptions struct {
	X []float64 `toml:"x" validate:"required,min=1"`
	Y []float64 `toml:"y" validate:"required,min=1"`
}

func (d *StaticDataset) Samples() ([]float64, []float64) { return d.x, d.y }

// RatioModel predicts x times the mean ratio y/x, plus an offset.
type RatioModel struct {
	wiring.Tagged
	offset float64
	ratio  float64
}

type ratioModelOptions struct {
	Offset float64 `toml:"offset"`
}

func (m *RatioModel) Fit(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("model %s: %d inputs but %d targets", m.ConfigKey(), len(x), len(y))
	}
	var sum float64
	for i := range x {
		if x[i] == 0 {
			return errors.New("zero input")
		}
		sum += y[i] / x[i]
	}
	m.ratio = sum / float64(len(x))
	return nil
}

func (m *RatioModel) Predict(x float64) float64 { return x*m.ratio + m.offset }

// MemoryPersister keeps models in a map.
type MemoryPersister struct {
	mu     sync.Mutex
	models map[string]Model
}

func (p *MemoryPersister) Write(name string, m Model) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.models[name] = m
	return nil
}

func (p *MemoryPersister) Read(name string) (Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.models[name]
	if !ok {
		return nil, fmt.Errorf("no model named %q", name)
	}
	return m, nil
}

// PredictService fits its model once every component exists and serves
// predictions from the persisted copy.
type PredictService struct {
	wiring.Tagged
	opts predictServiceOptions
}

type predictServiceOptions struct {
	Name      string    `toml:"name" validate:"required"`
	Dataset   Dataset   `toml:"dataset" validate:"required"`
	Model     Model     `toml:"model" validate:"required"`
	Persister Persister `toml:"persister" validate:"required"`
}

func (s *PredictService) InitializeComponent(tree wiring.Tree) error {
	x, y := s.opts.Dataset.Samples()
	if err := s.opts.Model.Fit(x, y); err != nil {
		return err
	}
	return s.opts.Persister.Write(s.opts.Name, s.opts.Model)
}

func (s *PredictService) Predict(x float64) (float64, error) {
	m, err := s.opts.Persister.Read(s.opts.Name)
	if err != nil {
		return 0, err
	}
	return m.Predict(x), nil
}

func init() {
	wiring.MustRegister("example.data:Static", wiring.Constructor(func(o staticDatasetOptions) (any, error) {
		return &StaticDataset{x: o.X, y: o.Y}, nil
	}))
	wiring.MustRegister("example.models:Ratio", wiring.Constructor(func(o ratioModelOptions) (any, error) {
		return &RatioModel{offset: o.Offset}, nil
	}))
	wiring.MustRegister("example.persist.Memory", func(map[string]any) (any, error) {
		return &MemoryPersister{models: make(map[string]Model)}, nil
	})
	wiring.MustRegister("example.service:Predict", wiring.Constructor(func(o predictServiceOptions) (any, error) {
		return &PredictService{opts: o}, nil
	}))
}

const baseConfig = `
[dataset]
"!" = "example.data:Static"
x = [1.0, 2.0, 4.0]
y = [2.0, 4.0, 8.0]

[service]
__factory__ = "example.service:Predict"
name = "ratio"
dataset = { __copy__ = "dataset" }
model = { __factory__ = "example.models:Ratio" }
persister = { __factory__ = "example.persist.Memory" }
`

// The override copies the base service, swaps in a model with an offset and
// renames the service when that offset is positive.
const overrideConfig = `{
  service = {
    __copy__ = "service"
    model = { __factory__ = "example.models:Ratio", offset = 0.5 }
  }
  __patch__ = [
    {
      op    = "set"
      path  = "service.name"
      value = lower("RATIO-OFFSET")
      when  = "service.model.offset > ` + "`0`" + `"
    },
  ]
  logging = {
    name  = "example"
    level = coalesce(lookup(environ, "EXAMPLE_LOG_LEVEL", ""), "info")
  }
  workdir = here
}`

func main() {
	log.Println("---")
	log.Println("➡️  Writing configuration sources...")

	dir, err := os.MkdirTemp("", "wiring-example-")
	if err != nil {
		log.Fatalf("❌ Failed to create work directory: %v", err)
	}
	defer func() {
		log.Println("---")
		log.Println("🧹 Cleaning up...")
		os.RemoveAll(dir)
		os.Unsetenv(wiring.DefaultEnvVar)
	}()

	base := filepath.Join(dir, "base.toml")
	override := filepath.Join(dir, "override.hcl")
	if err := os.WriteFile(base, []byte(baseConfig), 0644); err != nil {
		log.Fatalf("❌ Failed to write %s: %v", base, err)
	}
	if err := os.WriteFile(override, []byte(overrideConfig), 0644); err != nil {
		log.Fatalf("❌ Failed to write %s: %v", override, err)
	}
	os.Setenv(wiring.DefaultEnvVar, strings.Join([]string{base, override}, ","))
	log.Printf("✅ %s=%s", wiring.DefaultEnvVar, os.Getenv(wiring.DefaultEnvVar))

	log.Println("---")
	log.Println("➡️  Resolving components...")

	tree, err := wiring.GetConfig(map[string]any{"environment": "demo"})
	if err != nil {
		log.Fatalf("❌ Failed to resolve configuration: %v", err)
	}

	svc, err := wiring.ComponentAt[*PredictService](tree, "service")
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("✅ Built service %q under key %q", svc.opts.Name, svc.ConfigKey())

	for _, x := range []float64{1, 10, 100} {
		y, err := svc.Predict(x)
		if err != nil {
			log.Fatalf("❌ Prediction failed: %v", err)
		}
		log.Printf("   predict(%g) = %g", x, y)
	}

	workdir, _ := tree.String("workdir")
	env, _ := tree.String("environment")
	log.Printf("   workdir=%s environment=%s", workdir, env)
}
