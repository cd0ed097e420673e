// Package engine turns pipeline manifests into resolved plans. It wires
// the step-kind registry and the manifest's own schema into the order
// resolver and shapes the resolver output into Plan records.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/lineup/internal/manifest"
	"github.com/flemzord/lineup/internal/registry"
	"github.com/flemzord/lineup/pkg/merge"
	"github.com/flemzord/lineup/pkg/order"
)

// Engine resolves manifests into plans. Safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

// New creates an Engine logging through the given logger.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger.With("component", "engine")}
}

// Resolve orders the manifest's steps into a Plan. The step-kind
// registry contributes schema defaults beneath the manifest's own schema
// section; manifest entries win on conflict.
func (e *Engine) Resolve(m *manifest.Manifest) (*Plan, error) {
	start := time.Now()

	defaultGroup := m.DefaultGroup
	if defaultGroup == 0 {
		defaultGroup = registry.GroupDefault
	}

	resolver := order.New(order.Options{
		Schema:       buildSchema(m),
		DefaultGroup: defaultGroup,
		Finalize:     stepFinalizer(defaultGroup),
	})

	items := make([]any, len(m.Steps))
	for i, step := range m.Steps {
		items[i] = step
	}

	resolved, err := resolver.Run(items)
	if err != nil {
		return nil, fmt.Errorf("engine: resolving pipeline: %w", err)
	}

	steps := make([]Step, len(resolved))
	for i, v := range resolved {
		steps[i] = v.(Step)
	}

	plan := &Plan{
		Steps:      steps,
		ResolvedAt: start,
		Duration:   time.Since(start),
	}

	e.logger.Info("pipeline resolved",
		"steps_in", len(m.Steps),
		"steps_out", len(plan.Steps),
		"duration", plan.Duration,
	)
	return plan, nil
}

// buildSchema layers the manifest's schema section over the registry's
// kind defaults.
func buildSchema(m *manifest.Manifest) map[string]order.Item {
	schema := registry.Schema()
	for name, fragment := range m.Schema {
		if existing, ok := schema[name]; ok {
			schema[name] = merge.Merge(existing, fragment)
		} else {
			schema[name] = order.Item(merge.CloneMap(fragment))
		}
	}
	return schema
}

// stepFinalizer converts a resolved item into a Step: the recognized
// ordering fields are lifted out and everything else becomes the step's
// options.
func stepFinalizer(defaultGroup float64) order.FinalizeFunc {
	controlFields := map[string]struct{}{
		order.FieldName:    {},
		order.FieldGroup:   {},
		order.FieldAfter:   {},
		order.FieldBefore:  {},
		order.FieldDisable: {},
		order.FieldVirtual: {},
	}

	return func(item order.Item) (any, error) {
		group, ok := item.Group()
		if !ok {
			group = defaultGroup
		}

		var opts map[string]any
		for k, v := range item {
			if _, control := controlFields[k]; control {
				continue
			}
			if opts == nil {
				opts = make(map[string]any)
			}
			opts[k] = v
		}

		return Step{
			Name:    item.Name(),
			Group:   group,
			Options: opts,
		}, nil
	}
}
