package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	rootview "github.com/goliatone/go-view"
	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/view"
	"github.com/goliatone/go-view/pkg/watcher"
)

var users = []map[string]any{
	{"id": 1, "name": "João Lenon", "email": "lenon@athenna.io"},
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.AppEnv = "test"
	cfg.Disk = "views"
	cfg.NamedDisks = map[string]string{"admin": "views/admin"}
	cfg.Components = map[string]string{
		"button":    "views/components/button.html",
		"copyright": "views/components/copyright.html",
		"footer":    "views/components/footer.html",
		"header":    "views/components/header.html",
	}
	cfg.Templates.CustomDir = "stubs"
	return cfg
}

func workDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs("testdata")
	require.NoError(t, err)
	return dir
}

func TestRegister(t *testing.T) {
	v, err := Register(testConfig(), WithWorkDir(workDir(t)))
	require.NoError(t, err)

	require.Equal(t, []string{"admin", view.DefaultDisk}, v.ViewDisks())
	require.ElementsMatch(t, []string{
		"button", "copyright", "footer", "header",
		"artisan::view", "artisan::controller", "artisan::mail",
	}, v.Components())
	require.True(t, v.HasProperty("Env"))
	require.True(t, v.HasProperty("Config"))

	content, err := v.RenderSync("admin::listUsers", map[string]any{"users": users})
	require.NoError(t, err)
	require.Contains(t, content, "<title>Hello World!</title>")
	require.Contains(t, content, "<li>João Lenon</li>")

	content, err = v.RenderSync("welcome", map[string]any{"greeting": "hi"})
	require.NoError(t, err)
	require.Equal(t, "<h1>hi</h1>\n", content)
}

func TestRegisterProperties(t *testing.T) {
	t.Setenv("VIEW_PROVIDER_TEST", "from-env")

	v, err := Register(testConfig(), WithWorkDir(workDir(t)))
	require.NoError(t, err)

	content, err := v.RenderRawSync(`{{ Env("VIEW_PROVIDER_TEST") }}|{{ Env("VIEW_PROVIDER_MISSING", "fallback") }}|{{ Config("named_disks.admin") }}|{{ Config("extension") }}`, nil)
	require.NoError(t, err)
	require.Equal(t, "from-env|fallback|views/admin|.html", content)
}

func TestRegisterCustomTemplatesOverrideBuiltIn(t *testing.T) {
	v, err := Register(testConfig(), WithWorkDir(workDir(t)))
	require.NoError(t, err)

	content, err := v.RenderSync("artisan::view", map[string]any{"namePascal": "UserList"})
	require.NoError(t, err)
	require.Equal(t, "custom UserList\n", content)
}

func TestRegisterTemplatePaths(t *testing.T) {
	cfg := testConfig()
	cfg.Templates.UseCustom = false
	cfg.Templates.Paths = map[string]string{
		"mailer":  "stubs/mail.html",
		"missing": "stubs/missing.html",
	}

	v, err := Register(cfg, WithWorkDir(workDir(t)))
	require.NoError(t, err)

	require.True(t, v.HasTemplate("artisan::mailer"))
	require.False(t, v.HasTemplate("artisan::missing"))
	require.False(t, v.HasTemplate("artisan::controller"))

	content, err := v.RenderSync("artisan::view", map[string]any{"namePascal": "UserList", "nameKebab": "user-list", "nameLabel": "User List"})
	require.NoError(t, err)
	require.Contains(t, content, "<!-- UserList view -->")
}

func TestRegisterSkipsTemplatesInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = config.Production

	v, err := Register(cfg, WithWorkDir(workDir(t)))
	require.NoError(t, err)
	require.False(t, v.HasTemplate("artisan::view"))

	cfg.Templates.RegisterInProduction = true
	v, err = Register(cfg, WithWorkDir(workDir(t)))
	require.NoError(t, err)
	require.True(t, v.HasTemplate("artisan::view"))
}

func TestRegisterMissingComponent(t *testing.T) {
	cfg := testConfig()
	cfg.Components["broken"] = "views/components/missing.html"

	_, err := Register(cfg, WithWorkDir(workDir(t)), WithConcurrency(2))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegisterWithoutDisks(t *testing.T) {
	cfg := config.Default()
	cfg.Disk = ""

	v, err := Register(cfg)
	require.NoError(t, err)
	require.Empty(t, v.ViewDisks())

	_, err = v.RenderSync("welcome", nil)
	require.True(t, view.IsNotFound(err))
}

func TestBootWatchesDisks(t *testing.T) {
	for _, ext := range []string{".html", "html"} {
		t.Run(ext, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			dir := t.TempDir()
			page := filepath.Join(dir, "page.html")
			require.NoError(t, os.WriteFile(page, []byte("v1"), 0o644))

			cfg := config.Default()
			cfg.AppEnv = config.Production
			cfg.Disk = dir
			cfg.Extension = ext
			cfg.Watch = true

			p, err := Boot(context.Background(), cfg, WithWatcherOptions(watcher.WithDebounce(10*time.Millisecond)))
			require.NoError(t, err)
			defer p.Close()
			require.NotNil(t, p.Watcher)

			content, err := p.View.RenderSync("page", nil)
			require.NoError(t, err)
			require.Equal(t, "v1", content)

			require.NoError(t, os.WriteFile(page, []byte("v2"), 0o644))

			require.Eventually(t, func() bool {
				content, err := p.View.RenderSync("page", nil)
				return err == nil && content == "v2"
			}, 5*time.Second, 20*time.Millisecond)

			p.Close()
		})
	}
}

func TestBootWithoutWatch(t *testing.T) {
	cfg := testConfig()

	p, err := Boot(context.Background(), cfg, WithWorkDir(workDir(t)))
	require.NoError(t, err)
	require.Nil(t, p.Watcher)
	p.Close()
}

func TestDefaultInstallsRootView(t *testing.T) {
	v, err := Default(testConfig(), WithWorkDir(workDir(t)))
	require.NoError(t, err)
	require.Same(t, v, rootview.Default())

	content, err := rootview.RenderSync("welcome", map[string]any{"greeting": "root"})
	require.NoError(t, err)
	require.Equal(t, "<h1>root</h1>\n", content)
}
