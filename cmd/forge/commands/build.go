package commands

import (
	"os"

	"github.com/spf13/cobra"

	"go.trai.ch/forge/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	var opts app.BuildOptions
	var chdir string

	cmd := &cobra.Command{
		Use:   "build <target>",
		Short: "Build the named target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chdir != "" {
				if err := os.Chdir(chdir); err != nil {
					return err
				}
			}

			opts.Target = args[0]
			return c.app.Build(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Manifest, "file", "f", "build.forge", "Path to the build file")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "Path to the build database")
	cmd.Flags().StringVar(&opts.TracePath, "trace", "", "Path to write an engine execution trace")
	cmd.Flags().IntVarP(&opts.NumJobs, "jobs", "j", 0, "Number of parallel jobs (default: number of CPUs)")
	cmd.Flags().StringVarP(&chdir, "chdir", "C", "", "Change to directory before building")

	return cmd
}
