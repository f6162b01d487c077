// Package cmd provides the command-line interface of rripsim.
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rripsim",
		Short: "rripsim evaluates RRIP cache replacement policies on traces.",
		Long: `rripsim runs memory access traces through a last-level cache ` +
			`model and reports the hit and miss counts of the SRRIP, BRRIP ` +
			`and DRRIP replacement policies. Defaults can be set in a .env ` +
			`file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}

			return applyEnvDefaults(cmd)
		},
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Print debug messages.")
	rootCmd.PersistentFlags().String("env", ".env",
		"The file to load default settings from.")

	rootCmd.AddCommand(newRunCmd(), newLeadersCmd(), newSummaryCmd())

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

// envFlags maps environment variables to the flags they give defaults to.
var envFlags = map[string]string{
	"RRIPSIM_POLICY": "policy",
	"RRIPSIM_SETS":   "sets",
	"RRIPSIM_WAYS":   "ways",
	"RRIPSIM_SEED":   "seed",
}

// applyEnvDefaults loads the env file and uses the RRIPSIM_* variables for
// every flag that is not set on the command line.
func applyEnvDefaults(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env")

	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	for env, flagName := range envFlags {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil || flag.Changed {
			continue
		}

		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}

		err := cmd.Flags().Set(flagName, value)
		if err != nil {
			return err
		}

		logrus.Debugf("Using %s=%s from the environment", env, value)
	}

	return nil
}
