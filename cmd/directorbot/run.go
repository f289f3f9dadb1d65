package main

import (
	"github.com/spf13/cobra"

	"github.com/m3rciful/directorbot/core/app"
	"github.com/m3rciful/directorbot/core/bootstrap"
	corecmd "github.com/m3rciful/directorbot/core/cmd"
	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/storage"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the configured platform and serve dialogues (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, flags)
		},
	}
}

func serve(_ *cobra.Command, flags *rootFlags) error {
	return corecmd.Run(corecmd.Options{
		ConfigPath: flags.configPath,
		LoadConfig: config.Load,
		Bootstrap:  bootstrapApp,
	})
}

// service closes the storage opened by bootstrap after the app shut down.
type service struct {
	*app.App
	infra *bootstrap.Result
}

func (s *service) Close() error {
	return s.infra.Close()
}

func bootstrapApp(cfg *config.Config) (corecmd.App, error) {
	infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	a, err := app.New(app.Options{
		Config:   cfg,
		Recorder: storage.NewSessionStore(infra.DB),
	})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return &service{App: a, infra: infra}, nil
}
