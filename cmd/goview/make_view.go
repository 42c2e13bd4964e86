package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/provider"
	"github.com/goliatone/go-view/pkg/scaffold"
)

func newMakeViewCmd(a *app) *cobra.Command {
	var (
		force       bool
		destination string
		template    string
	)

	cmd := &cobra.Command{
		Use:   "make:view [name]",
		Short: "Make a new view file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var name string
			if len(args) > 0 {
				name = args[0]
			} else {
				var err error
				name, err = a.prompter.Input(ctx, "The view name:", "For example: admin/users")
				if err != nil {
					return err
				}
			}
			if name == "" {
				return errors.New("goview: a view name is required")
			}

			printHeader(cmd.OutOrStdout(), "MAKING VIEW")

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if destination == "" {
				destination = cfg.MakeView.Destination
			}

			v, err := provider.Register(cfg, provider.WithLogger(a.logger))
			if err != nil {
				return err
			}

			file, err := scaffold.New(v, scaffold.WithLogger(a.logger)).
				FileName(name).
				Extension(cfg.Extension).
				Destination(destination).
				Template(template).
				SetNameProperties(true).
				Force(force).
				Make(ctx)
			if err != nil {
				return err
			}

			a.logger.Debug("view created", zap.String("path", file.Path))
			printSuccess(cmd.OutOrStdout(), "View %s successfully created.", highlightStyle.Render(`"`+file.Name+`"`))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite the file if it already exists")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Directory the view is written to (defaults to make_view.destination)")
	cmd.Flags().StringVarP(&template, "template", "t", "view", "Stub template used to generate the view")
	return cmd
}
