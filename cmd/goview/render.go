package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/provider"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		dataPath string
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Render a view, component or (with --raw) a template file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := loadData(dataPath)
			if err != nil {
				return err
			}

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			v, err := provider.Register(cfg, provider.WithLogger(a.logger))
			if err != nil {
				return err
			}

			var out string
			if raw {
				out, err = v.RenderRawByPath(ctx, args[0], data)
			} else {
				out, err = v.Render(ctx, args[0], data)
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "JSON or YAML file with the render data")
	cmd.Flags().BoolVar(&raw, "raw", false, "Treat the argument as a template file path")
	return cmd
}

// loadData reads render data from a JSON or YAML file; YAML is a superset of
// JSON so one decoder covers both.
func loadData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("goview: read data: %w", err)
	}
	data := map[string]any{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("goview: decode data: %w", err)
	}
	return data, nil
}
