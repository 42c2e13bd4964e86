package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-view/pkg/config"
)

const defaultConfigPath = "config/view.yaml"

func newConfigureCmd(a *app) *cobra.Command {
	var (
		format string
		path   string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Publish the default view configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				target = filepath.Join("config", "view."+strings.TrimPrefix(format, "."))
			}

			if err := config.Publish(target, config.Default(), force); err != nil {
				return err
			}

			printSuccess(cmd.OutOrStdout(), "Create %s configuration file", highlightStyle.Render(target))
			printSuccess(cmd.OutOrStdout(), "Successfully configured %s", highlightStyle.Render("go-view"))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Config format: yaml, toml or json")
	cmd.Flags().StringVar(&path, "path", "", "Where to write the config (defaults to config/view.<format>)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}
