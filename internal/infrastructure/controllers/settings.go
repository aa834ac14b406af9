package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// loadSettings reads the job file named by --config, or the first one found
// in the default locations.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		var err error
		configPath, err = entities.FindConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no job file found: %w (specify one with --config or create .groupupdate.yaml)", err)
		}
	}

	logger.Infof("Using job file: %s", configPath)
	settings, err := entities.NewSettings(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load job file: %w", err)
	}
	return settings, nil
}
