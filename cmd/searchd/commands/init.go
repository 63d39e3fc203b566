package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avolpe/searchd/internal/cli/prompt"
	"github.com/avolpe/searchd/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample searchd configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/searchd/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  searchd init

  # Initialize with custom path
  searchd init --config /etc/searchd/config.yaml

  # Force overwrite existing config
  searchd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		ok, err := prompt.ConfirmWithForce(
			fmt.Sprintf("Configuration file %s already exists. Overwrite?", configPath),
			initForce,
		)
		if err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				return nil
			}
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.GetDefaultConfig()
	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set linuxpath to the absolute path of your data file")
	fmt.Println("  2. Start the server with: searchd start")
	fmt.Printf("  3. Or specify custom config: searchd start --config %s\n", configPath)

	return nil
}
