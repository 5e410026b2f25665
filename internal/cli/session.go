package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/catalog"
	"github.com/mlhub-labs/mlhub/internal/config"
	"github.com/mlhub-labs/mlhub/internal/deps"
	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/hosting"
	"github.com/mlhub-labs/mlhub/internal/logging"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/registry"
	"github.com/mlhub-labs/mlhub/internal/runtime"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

// hostingEndpoints are the hosting service URLs; tests point them at a
// local server.
var hostingEndpoints = hosting.DefaultEndpoints

// session is the state shared by the command handlers of one invocation.
type session struct {
	layout userdata.Layout
	hub    string
	// initExisted records whether the package root existed before the log
	// file was opened inside it.
	initExisted bool
	quiet       bool

	logger    *log.Logger
	logCloser io.Closer
	fetch     *fetch.Client
	hosting   *hosting.Service
	// prompt is shared by every question of the invocation; it buffers
	// stdin.
	prompt *prompt.Prompter
}

var sess = &session{logger: logging.Discard()}

// setup resolves settings and opens the log before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.BindFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	config.Load()

	s := &session{
		layout: userdata.NewLayout(config.InitDir()),
		hub:    config.Hub(),
		quiet:  config.Quiet(),
	}
	s.initExisted = s.layout.Exists()

	logger, closer, err := logging.Open(s.layout.Root, config.Debug(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	s.logger, s.logCloser = logger, closer

	opts := []fetch.Option{fetch.WithLogger(logger)}
	if !s.quiet {
		opts = append(opts, fetch.WithProgress(cmd.ErrOrStderr()))
	}
	s.fetch = fetch.New(opts...)
	s.hosting = hosting.NewService(s.fetch, hostingEndpoints)
	s.prompt = prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())

	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	logger.Info("start", "cmd", cmd.CommandPath(), "args", args, "hub", s.hub, "init", s.layout.Root)

	sess = s
	return nil
}

func (s *session) close() {
	if s.logCloser != nil {
		s.logCloser.Close()
		s.logCloser = nil
	}
}

func (s *session) registry(cmd *cobra.Command) *registry.Registry {
	logger := logging.FromContext(cmd.Context())
	return &registry.Registry{
		Layout:   s.layout,
		Catalog:  catalog.New(s.hub, s.fetch, catalog.WithCacheDir(s.layout.CatalogCachePath()), catalog.WithLogger(logger)),
		Fetch:    s.fetch,
		Hosting:  s.hosting,
		Prompter: s.prompt,
		Logger:   logger,
		Out:      cmd.OutOrStdout(),
		ErrOut:   cmd.ErrOrStderr(),
		Quiet:    s.quiet,
	}
}

func (s *session) installer(cmd *cobra.Command, model string, desc *manifest.Descriptor, yes bool, key string) *deps.Installer {
	return &deps.Installer{
		Layout:     s.layout,
		Model:      model,
		Descriptor: desc,
		Prompter:   s.prompt,
		Fetch:      s.fetch,
		Hosting:    s.hosting,
		Out:        cmd.OutOrStdout(),
		ErrOut:     cmd.ErrOrStderr(),
		Stdin:      s.prompt.Reader(),
		Yes:        yes,
		Key:        key,
	}
}

func (s *session) runner(cmd *cobra.Command) *runtime.Runner {
	return &runtime.Runner{
		Stdin:  s.prompt.Reader(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
}
