package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/catalog"
	"github.com/mlhub-labs/mlhub/internal/config"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

var (
	checkLayout   bool
	checkPrereqs  bool
	checkPackages bool
	checkCatalog  bool
	doctorFix     bool
)

func init() {
	doctorCmd.Flags().BoolVar(&checkLayout, "check-layout", false, "Verify the package root and its hidden directories")
	doctorCmd.Flags().BoolVar(&checkPrereqs, "check-prereqs", false, "Verify bash, git, python3, Rscript and conda are on PATH")
	doctorCmd.Flags().BoolVar(&checkPackages, "check-packages", false, "Validate the descriptors of installed models")
	doctorCmd.Flags().BoolVar(&checkCatalog, "check-catalog", false, "Report the age of the cached catalog")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Create missing directories, tighten permissions and drop dangling links")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of the local installation.",
	Long:  `Run diagnostic checks on the package root, the external programs model packages rely on, the installed packages and the catalog cache.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		all := !checkLayout && !checkPrereqs && !checkPackages && !checkCatalog
		fmt.Fprintln(out, titleStyle.Render(config.CmdName()+" doctor")+" "+mutedStyle.Render(sess.layout.Root))
		fmt.Fprintln(out)

		if all || checkLayout {
			if err := sess.layout.CheckLayout(out, doctorFix); err != nil {
				return err
			}
		}
		if all || checkPrereqs {
			userdata.CheckPrerequisites(out)
		}
		if all || checkPackages {
			checkInstalledPackages(out, sess.layout)
			sess.layout.CheckLinks(out, doctorFix)
		}
		if all || checkCatalog {
			checkCatalogCache(out, sess.layout, sess.hub)
		}
		return nil
	},
}

func checkInstalledPackages(w io.Writer, layout userdata.Layout) {
	fmt.Fprintln(w, "Package check:")
	models, err := layout.InstalledModels()
	if err != nil {
		fmt.Fprintf(w, "  [WARN] Cannot list installed models: %v\n", err)
		return
	}
	if len(models) == 0 {
		fmt.Fprintln(w, "  [ OK ] No models installed")
		return
	}
	for _, m := range models {
		res, err := manifest.ValidateFile(layout.PackageDir(m))
		switch {
		case err != nil:
			fmt.Fprintf(w, "  [MISS] %s: %v\n", m, err)
		case res.Valid:
			fmt.Fprintf(w, "  [ OK ] %s\n", m)
		default:
			fmt.Fprintf(w, "  [WARN] %s: %d validation %s\n", m, len(res.Issues), plural(len(res.Issues), "issue", "issues"))
		}
	}
}

func checkCatalogCache(w io.Writer, layout userdata.Layout, hub string) {
	fmt.Fprintln(w, "Catalog cache check:")
	st, err := catalog.LoadState(layout.CatalogCachePath())
	switch {
	case err != nil:
		fmt.Fprintf(w, "  [WARN] Cannot read catalog state: %v\n", err)
	case st == nil:
		fmt.Fprintln(w, "  [MISS] No catalog cached yet (run '"+config.CmdName()+" available')")
	case st.Hub != hub:
		fmt.Fprintf(w, "  [WARN] Cached catalog is for '%s', not '%s'\n", st.Hub, hub)
	case catalog.IsStale(st, catalog.DefaultMaxAge):
		fmt.Fprintf(w, "  [WARN] Cached catalog fetched %s is stale\n", st.FetchedAt.Format("2006-01-02"))
	default:
		fmt.Fprintf(w, "  [ OK ] Cached catalog fetched %s\n", st.FetchedAt.Format("2006-01-02"))
	}
}
