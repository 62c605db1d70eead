package main

import (
	"fmt"
	"sort"

	"github.com/matsen/pubcat/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
	Long: `Inspect pubcat configuration.

Settings are read from ~/.config/pubcat/config.yml (or
$XDG_CONFIG_HOME/pubcat/config.yml). PUBCAT_SOURCE, PUBCAT_CACHE_DIR and
PUBCAT_LOG_LEVEL override the file, and may be set in a .env file in the
working directory.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if humanOutput {
			fmt.Println(config.Path())
		} else {
			outputJSON(StatusResponse{Status: "ok", Path: config.Path()})
		}
		return nil
	},
}

// ConfigResponse is the response for config show.
type ConfigResponse struct {
	ConfigPath string            `json:"config_path"`
	Source     string            `json:"source"`
	CacheDir   string            `json:"cache_dir"`
	Database   string            `json:"database"`
	LogLevel   string            `json:"log_level"`
	Order      []string          `json:"order"`
	Labels     map[string]string `json:"labels"`
	HTTP       config.HTTPConfig `json:"http"`
	SSH        config.SSHConfig  `json:"ssh"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	resp := ConfigResponse{
		ConfigPath: config.Path(),
		Source:     cfg.Source,
		CacheDir:   cfg.CacheDir,
		Database:   cfg.DBPath(),
		LogLevel:   cfg.LogLevel,
		Order:      categoryOrder(cfg),
		Labels:     sectionLabels(cfg),
		HTTP:       cfg.HTTP,
		SSH:        cfg.SSH,
	}

	if !humanOutput {
		outputJSON(resp)
		return nil
	}

	fmt.Printf("config:    %s\n", resp.ConfigPath)
	fmt.Printf("source:    %s\n", resp.Source)
	fmt.Printf("cache:     %s\n", resp.Database)
	fmt.Printf("log level: %s\n", resp.LogLevel)
	fmt.Printf("http:      timeout %ds, %.1f req/s, %d retries\n",
		resp.HTTP.TimeoutSeconds, resp.HTTP.RateLimit, resp.HTTP.Retries)
	fmt.Printf("ssh:       connect timeout %ds\n", resp.SSH.ConnectTimeout)
	fmt.Printf("order:     %v\n", resp.Order)
	fmt.Println("labels:")
	keys := make([]string, 0, len(resp.Labels))
	for k := range resp.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-16s %s\n", k, resp.Labels[k])
	}
	return nil
}
