package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the configuration shared by every command. Global flags are
// bound to GSCRIPT_* environment variables.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "gscript",
		Short:         "Compile and run gameplay formula scripts",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.processGlobalFlags()
			return nil
		},
	}
	root.SetVersionTemplate("gscript {{.Version}} (" + commit + ", " + date + ")\n")

	flags := root.PersistentFlags()
	flags.String("env", "", "Environment file (.toml, .yaml or .yml)")
	flags.String("params", "", "Comma-separated script parameter names")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("store", "", "Artifact store: sqlite:PATH, postgres://... or s3://BUCKET/PREFIX")
	flags.StringP("code", "c", "", "Code to use instead of a file")

	a.v.SetEnvPrefix("gscript")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(
		a.newBenchCmd(),
		a.newCheckCmd(),
		a.newCompileCmd(),
		a.newDisCmd(),
		a.newRunCmd(),
		a.newTestCmd(),
	)
	return root
}
