package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/branding"
)

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:         "version [model]",
	Short:       "Display the version of mlhub or of a model.",
	Args:        cobra.MaximumNArgs(1),
	Annotations: modelAnnotation,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			reg := sess.registry(cmd)
			model := reg.CorrectModel(args[0])
			desc, err := reg.Installed(model)
			if err != nil {
				return err
			}
			if versionShort {
				fmt.Fprintln(out, desc.Meta.Version)
				return nil
			}
			fmt.Fprintf(out, "%s version %s\n", model, desc.Meta.Version)
			return nil
		}

		if versionShort {
			fmt.Fprintln(out, buildVersion)
			return nil
		}

		if versionJSON {
			info := map[string]string{
				"version": buildVersion,
				"commit":  buildCommit,
				"date":    buildDate,
			}
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version info: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "%s version %s\n", branding.AppName(), buildVersion)
		return nil
	},
}
