package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries the dependencies shared by the commands.
type app struct {
	configPath string
	verbose    bool

	stdout   io.Writer
	prompter Prompter
	logger   *zap.Logger
}

func main() {
	a := &app{stdout: os.Stdout, prompter: surveyPrompter{}}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "goview",
		Short:         "Manage and render views",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return nil
			}
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if a.verbose {
				config = zap.NewDevelopmentConfig()
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(a.stdout)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "Path to the view config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newMakeViewCmd(a))
	root.AddCommand(newConfigureCmd(a))
	root.AddCommand(newRenderCmd(a))
	return root
}
