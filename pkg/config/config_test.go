package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var (
	// fileCfg is the config that is loaded from the testdata/config.yml file.
	fileCfg = Config{
		AppEnv: "local",
		Disk:   "resources/views",
		NamedDisks: map[string]string{
			"admin": "resources/views/admin",
			"mail":  "resources/mail",
		},
		Components: map[string]string{
			"button": "resources/components/button.html",
		},
		Extension: ".tpl",
		Cache:     false,
		Watch:     true,
		Templates: TemplatesConfig{
			Paths:     map[string]string{"view": "stubs/view.tpl"},
			CustomDir: "resources/stubs",
			UseCustom: false,
		},
		MakeView: MakeViewConfig{Destination: "app/views"},
	}

	// envVars is the environment variables used to set the config.
	envVars = map[string]string{
		"VIEW_APP_ENV":                          "staging",
		"VIEW_DISK":                             "views",
		"VIEW_EXTENSION":                        ".njk",
		"VIEW_CACHE":                            "false",
		"VIEW_WATCH":                            "true",
		"VIEW_TEMPLATES_CUSTOM_DIR":             "stubs",
		"VIEW_TEMPLATES_USE_CUSTOM":             "false",
		"VIEW_TEMPLATES_REGISTER_IN_PRODUCTION": "true",
		"VIEW_MAKE_VIEW_DESTINATION":            "out",
	}
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func Test_Load(t *testing.T) {
	t.Run("loads from file", func(t *testing.T) {
		got, err := Load(filepath.Join("testdata", "config.yml"))
		require.NoError(t, err)
		assert.Equal(t, fileCfg, got)
	})

	t.Run("env overrides file values", func(t *testing.T) {
		t.Setenv("VIEW_EXTENSION", ".njk")
		t.Setenv("APP_ENV", "production")

		got, err := Load(filepath.Join("testdata", "config.yml"))
		require.NoError(t, err)
		assert.Equal(t, ".njk", got.Extension)
		assert.Equal(t, "production", got.AppEnv)
		assert.Equal(t, fileCfg.NamedDisks, got.NamedDisks)
	})

	t.Run("falls back to env when the file does not exist", func(t *testing.T) {
		setEnvs(t, envVars)

		got, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)

		assert.Equal(t, "staging", got.AppEnv)
		assert.Equal(t, "views", got.Disk)
		assert.Equal(t, ".njk", got.Extension)
		assert.False(t, got.Cache)
		assert.True(t, got.Watch)
		assert.Equal(t, "stubs", got.Templates.CustomDir)
		assert.False(t, got.Templates.UseCustom)
		assert.True(t, got.Templates.RegisterInProduction)
		assert.Equal(t, "out", got.MakeView.Destination)
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("disk: [unterminated"), 0o644))

		_, err := Load(path)
		require.Error(t, err)
	})
}

func Test_LoadEnv(t *testing.T) {
	got, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func Test_CanRegisterTemplates(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
		force  bool
		want   bool
	}{
		{name: "production", appEnv: "production", want: false},
		{name: "production mixed case", appEnv: "Production", want: false},
		{name: "production forced", appEnv: "production", force: true, want: true},
		{name: "local", appEnv: "local", want: true},
		{name: "empty", appEnv: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.AppEnv = tt.appEnv
			cfg.Templates.RegisterInProduction = tt.force
			assert.Equal(t, tt.want, cfg.CanRegisterTemplates())
		})
	}
}

func Test_Settings(t *testing.T) {
	settings, err := fileCfg.Settings()
	require.NoError(t, err)

	assert.Equal(t, "resources/stubs", settings.GetString("templates.custom_dir"))
	assert.Equal(t, "resources/views/admin", settings.GetString("named_disks.admin"))
	assert.Equal(t, ".tpl", settings.Get("extension"))
	assert.Nil(t, settings.Get("not.a.key"))
}

func Test_Publish(t *testing.T) {
	for _, ext := range []string{".yaml", ".yml", ".toml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "view"+ext)

			require.NoError(t, Publish(path, fileCfg, false))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, fileCfg, got)

			err = Publish(path, Default(), false)
			require.ErrorIs(t, err, fs.ErrExist)

			require.NoError(t, Publish(path, Default(), true))
			got, err = Load(path)
			require.NoError(t, err)
			assert.Equal(t, Default(), got)
		})
	}
}

func Test_PublishYAMLShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.yaml")
	require.NoError(t, Publish(path, Default(), false))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Equal(t, ".html", doc["extension"])
	assert.Equal(t, "production", doc["app_env"])
	assert.Contains(t, doc, "make_view")
}

func Test_EncodeUnsupported(t *testing.T) {
	_, err := Encode(Default(), ".ini")
	require.Error(t, err)
}

func Test_LoadKeepsNamesAsWritten(t *testing.T) {
	want := map[string]string{
		"myButton":  "resources/components/button.html",
		"ui.button": "resources/components/ui/button.html",
	}

	got, err := Load(filepath.Join("testdata", "names.yml"))
	require.NoError(t, err)
	assert.Equal(t, want, got.Components)
	assert.Equal(t, map[string]string{"Admin": "resources/views/admin"}, got.NamedDisks)
	assert.Equal(t, map[string]string{"Mail.Layout": "stubs/mail.html"}, got.Templates.Paths)
	assert.Equal(t, ".html", got.Extension)

	for _, ext := range []string{".toml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "view"+ext)
			require.NoError(t, Publish(path, got, false))

			reloaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, want, reloaded.Components)
			assert.Equal(t, got.NamedDisks, reloaded.NamedDisks)
		})
	}
}

func Test_LoadNamesWithEnvOverrides(t *testing.T) {
	t.Setenv("VIEW_TEMPLATES_CUSTOM_DIR", "custom")

	got, err := Load(filepath.Join("testdata", "names.yml"))
	require.NoError(t, err)
	assert.Equal(t, "custom", got.Templates.CustomDir)
	assert.Contains(t, got.Components, "ui.button")
}
