// Package runner executes labeled code blocks found in a Typst file.
// Blocks are retrieved through typst query, piped to the command
// configured for their language, and their outputs cached so unchanged
// blocks are not re-executed.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/typdocs/typdocs-go/internal/config"
	"github.com/typdocs/typdocs-go/internal/domain"
	"github.com/typdocs/typdocs-go/internal/typst"
	"github.com/typdocs/typdocs-go/internal/utils"
)

// Options control a single run.
type Options struct {
	// Root is the workspace directory; blocks execute with it as working
	// directory and the cache file lives in it. Defaults to the source
	// file's parent.
	Root string

	// Labels selects which block labels to execute. Empty means every
	// label with a configured language command.
	Labels []string

	// KeepGoing records a failed block's diagnostics and continues
	// instead of aborting the run.
	KeepGoing bool

	// NoCache disables reading and writing the result cache.
	NoCache bool
}

// Runner executes labeled blocks.
type Runner struct {
	typst     *typst.Client
	exec      domain.CommandRunner
	languages map[string]string
	cacheFile string
	log       *utils.Logger
}

// New creates a Runner
func New(t *typst.Client, exec domain.CommandRunner, cfg config.RunnerConfig, log *utils.Logger) *Runner {
	return &Runner{
		typst:     t,
		exec:      exec,
		languages: cfg.Languages,
		cacheFile: cfg.CacheFile,
		log:       log.WithComponent("runner"),
	}
}

// Run executes the labeled blocks of sourcePath and updates the cache.
func (r *Runner) Run(ctx context.Context, sourcePath string, opts Options) error {
	source, err := filepath.Abs(sourcePath)
	if err != nil {
		return err
	}

	root := opts.Root
	if root == "" {
		root = filepath.Dir(source)
	}
	if root, err = filepath.Abs(root); err != nil {
		return err
	}

	rel, err := filepath.Rel(root, source)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%w: %s not in %s", domain.ErrSourceOutsideRoot, source, root)
	}
	key := filepath.ToSlash(rel)

	labels := opts.Labels
	if len(labels) == 0 {
		labels = r.configuredLabels()
	}

	var cache *Cache
	if !opts.NoCache {
		if cache, err = OpenCache(filepath.Join(root, r.cacheFile)); err != nil {
			return err
		}
	}

	for _, label := range labels {
		command, ok := r.languages[label]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrLanguageNotConfigured, label)
		}

		sources, err := r.typst.QueryValues(ctx, source, "<"+label+">", root)
		if err != nil {
			return err
		}
		blocks := exampleBlocks(label, sources)
		r.log.Info().Str("label", label).Int("blocks", len(blocks)).Msg("executing blocks")

		results, err := r.execBlocks(ctx, root, key, command, blocks, cache, opts.KeepGoing)
		if err != nil {
			return err
		}
		if cache != nil {
			cache.Store(key, label, results)
		}
	}

	if cache != nil {
		return cache.Save()
	}
	return nil
}

// execBlocks runs every block of one label, consulting the cache first.
func (r *Runner) execBlocks(ctx context.Context, root, key, command string, blocks []domain.ExampleBlock, cache *Cache, keepGoing bool) ([]BlockResult, error) {
	bar := utils.NewProgressBar(len(blocks), utils.DescExecuting)
	defer bar.Finish()

	results := make([]BlockResult, 0, len(blocks))
	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hash := BlockHash(block.Source)
		if cache != nil {
			if output, ok := cache.Lookup(key, block.Language, block.Index-1, hash); ok {
				r.log.Debug().Str("label", block.Language).Int("block", block.Index).Msg("cache hit")
				results = append(results, BlockResult{Hash: hash, Output: output})
				_ = bar.Add(1)
				continue
			}
		}

		output, err := r.execBlock(ctx, root, command, block.Source)
		if err != nil {
			if !keepGoing {
				return nil, err
			}
			r.log.Error().Err(err).Str("label", block.Language).Int("block", block.Index).Msg("block failed")
			// Keep the diagnostics but leave the hash empty so the block
			// is re-executed on the next run instead of serving the
			// failure from cache.
			results = append(results, BlockResult{Output: err.Error()})
			_ = bar.Add(1)
			continue
		}
		results = append(results, BlockResult{Hash: hash, Output: output})
		_ = bar.Add(1)
	}
	return results, nil
}

// exampleBlocks numbers the queried block sources in document order.
func exampleBlocks(language string, sources []string) []domain.ExampleBlock {
	blocks := make([]domain.ExampleBlock, 0, len(sources))
	for i, src := range sources {
		blocks = append(blocks, domain.ExampleBlock{Index: i + 1, Language: language, Source: src})
	}
	return blocks
}

// execBlock pipes one block to its language command.
func (r *Runner) execBlock(ctx context.Context, root, command, block string) (string, error) {
	argv := strings.Fields(command)
	out, err := r.exec.RunStdin(ctx, root, block, argv[0], argv[1:]...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// configuredLabels returns the configured language labels in stable order.
func (r *Runner) configuredLabels() []string {
	labels := make([]string, 0, len(r.languages))
	for l := range r.languages {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
