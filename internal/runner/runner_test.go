package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typdocs/typdocs-go/internal/config"
	"github.com/typdocs/typdocs-go/internal/domain"
	"github.com/typdocs/typdocs-go/internal/typst"
	"github.com/typdocs/typdocs-go/internal/utils"
)

type execCall struct {
	dir   string
	stdin string
	argv  []string
}

// fakeRunner serves typst query invocations from a canned block list and
// records everything piped to a language command.
type fakeRunner struct {
	blocks map[string][]byte // selector -> query output
	fail   string           // stdin that makes execution fail

	execCalls []execCall
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return f.RunStdin(ctx, dir, "", name, args...)
}

func (f *fakeRunner) RunStdin(ctx context.Context, dir, stdin, name string, args ...string) ([]byte, error) {
	if name == "typst" {
		out, ok := f.blocks[args[2]]
		if !ok {
			return []byte("[]"), nil
		}
		return out, nil
	}

	f.execCalls = append(f.execCalls, execCall{dir: dir, stdin: stdin, argv: append([]string{name}, args...)})
	if f.fail != "" && stdin == f.fail {
		return nil, domain.NewToolError(name, args, "boom", errors.New("exit status 1"))
	}
	return []byte("ran: " + stdin), nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

func testLogger() *utils.Logger {
	return utils.NewLogger(utils.LoggerOptions{Level: "error", Format: "json"})
}

func newRunner(fake *fakeRunner) *Runner {
	log := testLogger()
	cfg := config.RunnerConfig{
		CacheFile: ".coderunner.json",
		Languages: map[string]string{
			"example-python": "python3 -",
			"example-bash":   "sh",
		},
	}
	return New(typst.NewClient("typst", fake, log), fake, cfg, log)
}

func workspace(t *testing.T) (root, source string) {
	t.Helper()
	root = t.TempDir()
	source = filepath.Join(root, "guide.typ")
	require.NoError(t, os.WriteFile(source, []byte("= Guide\n"), 0644))
	return root, source
}

func TestRun(t *testing.T) {
	root, source := workspace(t)
	fake := &fakeRunner{blocks: map[string][]byte{
		"<example-python>": []byte(`["print(1)", "print(2)"]`),
	}}

	err := newRunner(fake).Run(context.Background(), source, Options{
		Labels: []string{"example-python"},
	})
	require.NoError(t, err)

	require.Len(t, fake.execCalls, 2)
	assert.Equal(t, []string{"python3", "-"}, fake.execCalls[0].argv)
	assert.Equal(t, "print(1)", fake.execCalls[0].stdin)
	assert.Equal(t, "print(2)", fake.execCalls[1].stdin)
	assert.Equal(t, root, fake.execCalls[0].dir)

	cache, err := OpenCache(filepath.Join(root, ".coderunner.json"))
	require.NoError(t, err)
	out, ok := cache.Lookup("guide.typ", "example-python", 0, BlockHash("print(1)"))
	require.True(t, ok)
	assert.Equal(t, "ran: print(1)", out)
}

func TestRun_CacheSkipsUnchangedBlocks(t *testing.T) {
	_, source := workspace(t)
	fake := &fakeRunner{blocks: map[string][]byte{
		"<example-python>": []byte(`["print(1)"]`),
	}}
	r := newRunner(fake)
	opts := Options{Labels: []string{"example-python"}}

	require.NoError(t, r.Run(context.Background(), source, opts))
	require.NoError(t, r.Run(context.Background(), source, opts))
	assert.Len(t, fake.execCalls, 1)

	// changed block source misses the cache
	fake.blocks["<example-python>"] = []byte(`["print(99)"]`)
	require.NoError(t, r.Run(context.Background(), source, opts))
	assert.Len(t, fake.execCalls, 2)
}

func TestRun_NoCache(t *testing.T) {
	root, source := workspace(t)
	fake := &fakeRunner{blocks: map[string][]byte{
		"<example-python>": []byte(`["print(1)"]`),
	}}
	r := newRunner(fake)
	opts := Options{Labels: []string{"example-python"}, NoCache: true}

	require.NoError(t, r.Run(context.Background(), source, opts))
	require.NoError(t, r.Run(context.Background(), source, opts))

	assert.Len(t, fake.execCalls, 2)
	assert.NoFileExists(t, filepath.Join(root, ".coderunner.json"))
}

func TestRun_FailingBlock(t *testing.T) {
	_, source := workspace(t)
	fake := &fakeRunner{
		blocks: map[string][]byte{
			"<example-python>": []byte(`["print(1)", "raise SystemExit(1)"]`),
		},
		fail: "raise SystemExit(1)",
	}

	err := newRunner(fake).Run(context.Background(), source, Options{
		Labels: []string{"example-python"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRun_KeepGoing(t *testing.T) {
	root, source := workspace(t)
	fake := &fakeRunner{
		blocks: map[string][]byte{
			"<example-python>": []byte(`["print(1)", "raise SystemExit(1)"]`),
		},
		fail: "raise SystemExit(1)",
	}

	err := newRunner(fake).Run(context.Background(), source, Options{
		Labels:    []string{"example-python"},
		KeepGoing: true,
	})
	require.NoError(t, err)
	require.Len(t, fake.execCalls, 2)

	cache, err := OpenCache(filepath.Join(root, ".coderunner.json"))
	require.NoError(t, err)

	out, ok := cache.Lookup("guide.typ", "example-python", 0, BlockHash("print(1)"))
	require.True(t, ok)
	assert.Equal(t, "ran: print(1)", out)

	// the failure's diagnostics are recorded but never satisfy a lookup
	results := cache.Files["guide.typ"]["example-python"]
	require.Len(t, results, 2)
	assert.Contains(t, results[1].Output, "boom")
	_, ok = cache.Lookup("guide.typ", "example-python", 1, BlockHash("raise SystemExit(1)"))
	assert.False(t, ok)
}

func TestRun_KeepGoing_FailureNotServedFromCache(t *testing.T) {
	root, source := workspace(t)
	fake := &fakeRunner{
		blocks: map[string][]byte{
			"<example-python>": []byte(`["print(1)", "import missing_dep"]`),
		},
		fail: "import missing_dep",
	}
	r := newRunner(fake)
	opts := Options{Labels: []string{"example-python"}, KeepGoing: true}

	require.NoError(t, r.Run(context.Background(), source, opts))
	require.Len(t, fake.execCalls, 2)

	// once the environment is fixed the failed block runs again
	fake.fail = ""
	require.NoError(t, r.Run(context.Background(), source, opts))
	require.Len(t, fake.execCalls, 3)
	assert.Equal(t, "import missing_dep", fake.execCalls[2].stdin)

	cache, err := OpenCache(filepath.Join(root, ".coderunner.json"))
	require.NoError(t, err)
	out, ok := cache.Lookup("guide.typ", "example-python", 1, BlockHash("import missing_dep"))
	require.True(t, ok)
	assert.Equal(t, "ran: import missing_dep", out)
}

func TestRun_DefaultLabels(t *testing.T) {
	_, source := workspace(t)
	fake := &fakeRunner{blocks: map[string][]byte{
		"<example-python>": []byte(`["print(1)"]`),
		"<example-bash>":   []byte(`["echo hi"]`),
	}}

	err := newRunner(fake).Run(context.Background(), source, Options{})
	require.NoError(t, err)

	require.Len(t, fake.execCalls, 2)
	// labels run in sorted order
	assert.Equal(t, "sh", fake.execCalls[0].argv[0])
	assert.Equal(t, "python3", fake.execCalls[1].argv[0])
}

func TestRun_UnconfiguredLabel(t *testing.T) {
	_, source := workspace(t)
	err := newRunner(&fakeRunner{}).Run(context.Background(), source, Options{
		Labels: []string{"example-ruby"},
	})
	assert.ErrorIs(t, err, domain.ErrLanguageNotConfigured)
}

func TestRun_SourceOutsideRoot(t *testing.T) {
	_, source := workspace(t)
	err := newRunner(&fakeRunner{}).Run(context.Background(), source, Options{
		Root: t.TempDir(),
	})
	assert.ErrorIs(t, err, domain.ErrSourceOutsideRoot)
}
