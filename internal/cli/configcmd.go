package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yaklabco/forummark/internal/configloader"
)

func newConfigCommand() *cobra.Command {
	var listEnv bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Long: `Print the configuration after merging defaults, config files and
FORUMMARK_* environment variables. With --env, list the supported
environment variables instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listEnv {
				return writeEnvVars(cmd.OutOrStdout())
			}

			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			data, err := cfg.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&listEnv, "env", false, "list supported environment variables")

	return cmd
}

func writeEnvVars(w io.Writer) error {
	vars := configloader.ListEnvVars()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%-28s %s\n", name, vars[name]); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
	return nil
}
