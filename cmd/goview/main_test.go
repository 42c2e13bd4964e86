package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/testsupport"
)

type fakePrompter struct {
	answer string
	asked  int
}

func (p *fakePrompter) Input(context.Context, string, string) (string, error) {
	p.asked++
	return p.answer, nil
}

func run(t *testing.T, prompter Prompter, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{stdout: &out, prompter: prompter, logger: zap.NewNop()}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := config.Default()
	cfg.AppEnv = "local"
	cfg.Disk = filepath.Join(dir, "views")
	cfg.MakeView.Destination = filepath.Join(dir, "views")

	path := filepath.Join(dir, "view.yaml")
	require.NoError(t, config.Publish(path, cfg, false))
	require.NoError(t, os.MkdirAll(cfg.Disk, 0o755))
	return path
}

func TestMakeView(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	out, err := run(t, &fakePrompter{}, "make:view", "admin/userList", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, "[ MAKING VIEW ]")
	require.Contains(t, out, `"userList.html"`)

	content, err := os.ReadFile(filepath.Join(dir, "views", "admin", "userList.html"))
	require.NoError(t, err)
	require.Contains(t, string(content), "<h1>User List</h1>")

	_, err = run(t, &fakePrompter{}, "make:view", "admin/userList", "--config", cfgPath)
	require.Error(t, err)

	_, err = run(t, &fakePrompter{}, "make:view", "admin/userList", "--config", cfgPath, "--force")
	require.NoError(t, err)
}

func TestMakeViewPromptsForName(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	prompter := &fakePrompter{answer: "welcome"}

	_, err := run(t, prompter, "make:view", "--config", cfgPath, "--destination", filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Equal(t, 1, prompter.asked)

	_, err = os.Stat(filepath.Join(dir, "out", "welcome.html"))
	require.NoError(t, err)
}

func TestConfigure(t *testing.T) {
	dir := t.TempDir()

	for _, format := range []string{"yaml", "toml", "json"} {
		path := filepath.Join(dir, "view."+format)

		out, err := run(t, nil, "configure", "--format", format, "--path", path)
		require.NoError(t, err)
		require.Contains(t, out, "Successfully configured")

		cfg, err := config.Load(path)
		require.NoError(t, err)
		require.Equal(t, config.Default(), cfg)

		_, err = run(t, nil, "configure", "--format", format, "--path", path)
		require.Error(t, err)
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	testsupport.WriteFiles(t, dir, map[string]string{
		"views/hello.html": "Hello {{ name }}",
		"data.json":        `{"name": "Ada"}`,
	})
	dataPath := filepath.Join(dir, "data.json")

	out, err := run(t, nil, "render", "hello", "--config", cfgPath, "--data", dataPath)
	require.NoError(t, err)
	require.Equal(t, "Hello Ada", out)

	out, err = run(t, nil, "render", filepath.Join(dir, "views", "hello.html"), "--raw", "--config", cfgPath)
	require.NoError(t, err)
	require.Equal(t, "Hello ", out)

	_, err = run(t, nil, "render", "missing", "--config", cfgPath)
	require.Error(t, err)
}
