package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "a.png"), buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level.json"), []byte(`{"name":"intro","size":3}`), 0o644))
	return dir
}

func run(ctx context.Context, args ...string) (string, error) {
	out := new(bytes.Buffer)
	root := New()
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestLoadPrintsSummary(t *testing.T) {
	dir := writeAssets(t)

	out, err := run(context.Background(), "load", "--base-path", dir, "level.json", "img/a.png")
	require.NoError(t, err)
	assert.Equal(t, "img/a.png\ttexture 2x2\nlevel.json\tdocument with 2 keys\n", out)
}

func TestLoadReportsFailures(t *testing.T) {
	dir := writeAssets(t)

	out, err := run(context.Background(), "load", "--base-path", dir, "img/a.png", "missing.png")
	require.Error(t, err)
	assert.Contains(t, out, "img/a.png\ttexture 2x2\n")
	assert.NotContains(t, out, "missing.png\t")
}

func TestLoadWithMetadata(t *testing.T) {
	dir := writeAssets(t)

	out, err := run(context.Background(), "load", "--base-path", dir, "--data", "mipmap=bogus", "img/a.png")
	require.Error(t, err)
	assert.NotContains(t, out, "texture 2x2")

	out, err = run(context.Background(), "load", "--base-path", dir, "--data", "mipmap=off", "img/a.png")
	require.NoError(t, err)
	assert.Contains(t, out, "texture 2x2")
}

func TestLoadRequiresArgs(t *testing.T) {
	_, err := run(context.Background(), "load")
	require.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(context.Background(), "load", "--config", filepath.Join(t.TempDir(), "nope.toml"), "a.png")
	require.Error(t, err)
}

func TestConfigFileAndOverrides(t *testing.T) {
	dir := writeAssets(t)
	cfgPath := filepath.Join(t.TempDir(), "anima.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[log]\nlevel = \"error\"\n\n[fetch]\nbase_path = \"/does/not/exist\"\n"), 0o644))

	_, err := run(context.Background(), "load", "--config", cfgPath, "img/a.png")
	require.Error(t, err)

	out, err := run(context.Background(), "load", "--config", cfgPath, "--base-path", dir, "img/a.png")
	require.NoError(t, err)
	assert.Contains(t, out, "texture 2x2")
}

func TestWatchPreloadsUntilCancelled(t *testing.T) {
	dir := writeAssets(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := run(ctx, "watch", "--base-path", dir, "--preload", "img/a.png,level.json")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded\timg/a.png\ttexture 2x2\n")
	assert.Contains(t, out, "loaded\tlevel.json\tdocument with 2 keys\n")
}

func TestRootPrintsHelp(t *testing.T) {
	out, err := run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "anima-assets")
	assert.Contains(t, out, "watch")
}
