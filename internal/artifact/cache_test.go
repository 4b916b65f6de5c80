package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverter struct {
	calls atomic.Int32
	fail  error
	files map[string]string
}

func (f *fakeConverter) Name() string { return "fake" }

func (f *fakeConverter) Convert(_ context.Context, _ string, out string) error {
	f.calls.Add(1)
	if f.fail != nil {
		// leave partial output behind like a crashed converter would
		_ = os.WriteFile(filepath.Join(out, "model.bin.part"), []byte("x"), 0o644)
		return f.fail
	}
	for name, body := range f.files {
		if err := os.WriteFile(filepath.Join(out, name), []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type fakeReclaimer struct {
	calls atomic.Int32
	err   error
}

func (r *fakeReclaimer) Reclaim(string) (int64, error) {
	r.calls.Add(1)
	return 42, r.err
}

func newFake() *fakeConverter {
	return &fakeConverter{files: map[string]string{"model.bin": "weights", "config.json": "{}"}}
}

func TestEnsure_ConvertsOnceThenReuses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nllb-ct2")
	conv := newFake()
	rec := &fakeReclaimer{}
	c := New(Config{Converter: conv, Reclaimer: rec, Logger: zerolog.Nop()})

	art, err := c.Ensure(context.Background(), "facebook/nllb-200-distilled-600M", dir)
	require.NoError(t, err)
	assert.True(t, art.Ready)
	assert.True(t, art.Converted)
	assert.FileExists(t, filepath.Join(dir, SentinelName))
	assert.FileExists(t, filepath.Join(dir, "model.bin"))
	assert.EqualValues(t, 1, rec.calls.Load())

	art, err = c.Ensure(context.Background(), "facebook/nllb-200-distilled-600M", dir)
	require.NoError(t, err)
	assert.True(t, art.Ready)
	assert.False(t, art.Converted)
	assert.EqualValues(t, 1, conv.calls.Load(), "second ensure must not convert")
	assert.EqualValues(t, 1, rec.calls.Load())

	desc, err := Describe(dir)
	require.NoError(t, err)
	assert.Contains(t, desc, "via fake")
}

func TestEnsure_DiscardsPartialDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nllb-ct2")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.bin"), []byte("junk"), 0o644))
	stale := dir + stagingInfix + "123"
	require.NoError(t, os.MkdirAll(stale, 0o755))

	conv := newFake()
	c := New(Config{Converter: conv, Logger: zerolog.Nop()})
	_, err := c.Ensure(context.Background(), "m", dir)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "stale.bin"))
	assert.NoDirExists(t, stale)
	assert.EqualValues(t, 1, conv.calls.Load())
}

func TestEnsure_FailureLeavesNoSentinel(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "nllb-ct2")
	conv := &fakeConverter{fail: errors.New("out of disk")}
	c := New(Config{Converter: conv, Logger: zerolog.Nop()})

	_, err := c.Ensure(context.Background(), "m", dir)
	require.Error(t, err)
	assert.True(t, IsConversionError(err))
	assert.ErrorContains(t, err, "out of disk")
	assert.NoDirExists(t, dir)

	entries, _ := os.ReadDir(root)
	assert.Empty(t, entries, "staging dir must be cleaned up")

	// a later run with a working converter recovers
	c = New(Config{Converter: newFake(), Logger: zerolog.Nop()})
	art, err := c.Ensure(context.Background(), "m", dir)
	require.NoError(t, err)
	assert.True(t, art.Converted)
}

func TestEnsure_EmptyOutputIsAnError(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a")
	c := New(Config{Converter: &fakeConverter{}, Logger: zerolog.Nop()})
	_, err := c.Ensure(context.Background(), "m", dir)
	require.Error(t, err)
	assert.True(t, IsConversionError(err))
	assert.NoFileExists(t, filepath.Join(dir, SentinelName))
}

func TestEnsure_ReclaimFailureIsNotFatal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a")
	c := New(Config{Converter: newFake(), Reclaimer: &fakeReclaimer{err: errors.New("perm")}, Logger: zerolog.Nop()})
	art, err := c.Ensure(context.Background(), "m", dir)
	require.NoError(t, err)
	assert.True(t, art.Ready)
}

func TestEnsure_Validation(t *testing.T) {
	c := New(Config{Converter: newFake(), Logger: zerolog.Nop()})
	_, err := c.Ensure(context.Background(), "", t.TempDir())
	assert.True(t, IsConversionError(err))
	_, err = c.Ensure(context.Background(), "m", "")
	assert.True(t, IsConversionError(err))

	noConv := New(Config{Logger: zerolog.Nop()})
	_, err = noConv.Ensure(context.Background(), "m", filepath.Join(t.TempDir(), "x"))
	assert.True(t, IsConversionError(err))
}

func TestEnsure_ConcurrentCallersConvertOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a")
	conv := newFake()
	c := New(Config{Converter: conv, Logger: zerolog.Nop()})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Ensure(context.Background(), "m", dir); err != nil {
				t.Errorf("ensure: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, conv.calls.Load())
}
