package replay

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// BatchConfig configures a multi-transaction replay run (spec.md §5:
// "parallel worker pool with a work-stealing queue, bounded by an
// operator-supplied concurrency cap"). It is typically loaded from a
// YAML file alongside the per-transaction Request template.
type BatchConfig struct {
	Digests        []string `yaml:"digests"`
	Concurrency    int      `yaml:"concurrency"`
	StopOnError    bool     `yaml:"stop_on_error"`
	RequestTemplate Request `yaml:"-"`
}

// LoadBatchConfig reads a YAML batch file from path.
func LoadBatchConfig(path string) (BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BatchConfig{}, fmt.Errorf("replay: read batch config %s: %w", path, err)
	}
	var cfg BatchConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BatchConfig{}, fmt.Errorf("replay: parse batch config %s: %w", path, err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}

// BatchResult pairs one digest with its report, or the error that
// prevented one from being produced.
type BatchResult struct {
	Digest string
	Report *Report
	Err    error
}

// RunBatch replays every digest in cfg against o, bounded by
// cfg.Concurrency worker slots. Go's scheduler distributes goroutines
// across OS threads as they block on I/O, giving the pool its
// work-stealing character without a hand-rolled queue: a fast digest
// finishes and its goroutine slot is immediately claimed by the next
// pending one via errgroup's semaphore.
func (o *Orchestrator) RunBatch(ctx context.Context, cfg BatchConfig) ([]BatchResult, error) {
	results := make([]BatchResult, len(cfg.Digests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i, digest := range cfg.Digests {
		i, digest := i, digest
		g.Go(func() error {
			req := cfg.RequestTemplate
			req.Digest = digest
			report, err := o.Replay(gctx, req)
			results[i] = BatchResult{Digest: digest, Report: report, Err: err}
			if err != nil && cfg.StopOnError {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && cfg.StopOnError {
		return results, err
	}
	return results, nil
}
