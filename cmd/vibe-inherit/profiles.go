package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-inherit/internal/filter"
	"github.com/inodb/vibe-inherit/internal/pipeline"
)

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List filter profiles",
		Long: `List the built-in filter profiles and those defined in the config file.

A config profile starts from a built-in one (key "base", default hg38) and
replaces any field it sets:

  profiles:
    lab:
      base: hg38
      frequencies:
        - name: rare
          threshold: 0.01
          columns: [gnomad211_exome]`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range profileNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show a resolved filter profile",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveProfile(args[0])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshaling profile: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	})
	return cmd
}

// profileNames lists built-in and configured profiles, sorted.
func profileNames() []string {
	names := filter.ProfileNames()
	for name := range viper.GetStringMap("profiles") {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// resolveProfile returns the named profile with any config-file overrides
// applied. Config profiles named after a built-in override that built-in.
func resolveProfile(name string) (filter.Config, error) {
	key := "profiles." + name
	cfg, builtin := filter.Profile(name)

	if !viper.IsSet(key) {
		if !builtin {
			return filter.Config{}, &pipeline.ConfigError{Field: "profile", Message: fmt.Sprintf("unknown profile %q", name)}
		}
		return cfg, nil
	}

	if !builtin {
		base := viper.GetString(key + ".base")
		if base == "" {
			base = filter.ProfileHG38
		}
		var ok bool
		if cfg, ok = filter.Profile(base); !ok {
			return filter.Config{}, &pipeline.ConfigError{Field: key + ".base", Message: fmt.Sprintf("unknown profile %q", base)}
		}
	}

	var over filter.Config
	if err := viper.UnmarshalKey(key, &over); err != nil {
		return filter.Config{}, &pipeline.ConfigError{Field: key, Message: err.Error()}
	}
	cfg = cfg.Override(over)
	cfg.Name = name
	if err := cfg.Validate(); err != nil {
		return filter.Config{}, &pipeline.ConfigError{Field: key, Message: err.Error()}
	}
	return cfg, nil
}
