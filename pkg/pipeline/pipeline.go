// Package pipeline orders the stages of a job by their declared dependencies and
// runs them one after another.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ethpandaops/energy-etl/pkg/observability"
	"github.com/heimdalr/dag"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNonExistentDependency is returned when a stage depends on an unknown stage
	ErrNonExistentDependency = errors.New("stage depends on non-existent stage")
	// ErrEmptyStageName is returned for stages without a name
	ErrEmptyStageName = errors.New("stage name is required")
	// ErrNoRunFunc is returned for stages without a body
	ErrNoRunFunc = errors.New("stage has no run function")
	// ErrStageFailed wraps the error of a failed stage
	ErrStageFailed = errors.New("stage failed")
)

// Stage is one step of a job
type Stage struct {
	Name      string
	DependsOn []string
	Run       func(ctx context.Context) error
}

// Pipeline is a validated, ordered set of stages
type Pipeline struct {
	name   string
	graph  *dag.DAG
	stages map[string]Stage
	order  []string
	log    logrus.FieldLogger
}

// New builds a pipeline. Cycles, duplicate names and unknown dependencies are rejected.
func New(name string, logger logrus.FieldLogger, stages ...Stage) (*Pipeline, error) {
	p := &Pipeline{
		name:   name,
		graph:  dag.NewDAG(),
		stages: make(map[string]Stage, len(stages)),
		log:    logger.WithFields(logrus.Fields{"component": "pipeline", "job": name}),
	}

	for _, s := range stages {
		if s.Name == "" {
			return nil, ErrEmptyStageName
		}
		if s.Run == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoRunFunc, s.Name)
		}
		if err := p.graph.AddVertexByID(s.Name, s.Name); err != nil {
			return nil, fmt.Errorf("failed to add stage %s: %w", s.Name, err)
		}
		p.stages[s.Name] = s
	}

	for _, s := range stages {
		for _, dep := range s.DependsOn {
			if _, err := p.graph.GetVertex(dep); err != nil {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrNonExistentDependency, s.Name, dep)
			}

			// AddEdge returns error if it would create a cycle
			if err := p.graph.AddEdge(dep, s.Name); err != nil {
				return nil, fmt.Errorf("invalid dependency %s → %s: %w", dep, s.Name, err)
			}
		}
	}

	order, err := p.topologicalOrder()
	if err != nil {
		return nil, err
	}
	p.order = order

	return p, nil
}

// Order returns the stage names in execution order
func (p *Pipeline) Order() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Execute runs every stage in order and stops at the first failure
func (p *Pipeline) Execute(ctx context.Context) error {
	start := time.Now()

	p.log.WithField("stages", p.order).Info("Starting pipeline")

	for _, name := range p.order {
		if err := ctx.Err(); err != nil {
			p.record("failed", start)
			return err
		}

		stageStart := time.Now()
		err := p.stages[name].Run(ctx)
		duration := time.Since(stageStart)

		log := p.log.WithFields(logrus.Fields{
			"stage":    name,
			"duration": duration,
		})

		if err != nil {
			observability.RecordStage(name, "failed", duration.Seconds())
			observability.RecordError("pipeline", name)
			log.WithError(err).Error("Stage failed")
			p.record("failed", start)

			return fmt.Errorf("%w: %s: %w", ErrStageFailed, name, err)
		}

		observability.RecordStage(name, "success", duration.Seconds())
		log.Debug("Stage complete")
	}

	p.record("success", start)
	p.log.WithField("duration", time.Since(start)).Info("Pipeline complete")

	return nil
}

func (p *Pipeline) record(status string, start time.Time) {
	now := time.Now()
	observability.RecordRun(p.name, status, now.Sub(start).Seconds(), float64(now.Unix()))
}

// topologicalOrder sorts stages so each runs after its dependencies. Ties are broken
// by name so the order is stable between runs.
func (p *Pipeline) topologicalOrder() ([]string, error) {
	vertices := p.graph.GetVertices()

	inDegree := make(map[string]int, len(vertices))
	for id := range vertices {
		parents, err := p.graph.GetParents(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get dependencies of %s: %w", id, err)
		}
		inDegree[id] = len(parents)
	}

	ready := make([]string, 0, len(vertices))
	for id, n := range inDegree {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(vertices))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		children, err := p.graph.GetChildren(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get dependents of %s: %w", id, err)
		}

		released := make([]string, 0, len(children))
		for child := range children {
			inDegree[child]--
			if inDegree[child] == 0 {
				released = append(released, child)
			}
		}

		ready = append(ready, released...)
		sort.Strings(ready)
	}

	return order, nil
}
