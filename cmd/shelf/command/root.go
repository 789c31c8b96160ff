// Package command implements the shelf command line.
package command

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/idempotency"
	"github.com/shelfhq/shelf/pkg/logger"
	"github.com/shelfhq/shelf/pkg/tokenstore"
	"github.com/shelfhq/shelf/pkg/utils"
	"github.com/shelfhq/shelf/service/apiclient"
	"github.com/shelfhq/shelf/service/resource"
)

type app struct {
	configPath string
	apiURL     string
	output     string
	debug      bool

	conf  *model.Config
	log   *zap.Logger
	store tokenstore.Store
	api   *resource.API
	out   io.Writer
}

type Option func(*app)

// WithStore replaces the configured token store.
func WithStore(s tokenstore.Store) Option {
	return func(a *app) { a.store = s }
}

func WithOutput(w io.Writer) Option {
	return func(a *app) { a.out = w }
}

func NewRoot(opts ...Option) *cobra.Command {
	a := &app{out: os.Stdout}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:               "shelf",
		Short:             "Command line client for the authors and books service",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.init() },
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", defaultConfigPath(), "config file (YAML)")
	pf.StringVar(&a.apiURL, "api-url", "", "API base URL, overrides the config")
	pf.BoolVar(&a.debug, "debug", false, "log requests to stderr")
	pf.StringVarP(&a.output, "output", "o", "text", "output format: text|json")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.registerCmd(),
		entityCmd(a, authorsSpec),
		entityCmd(a, booksSpec),
	)
	return root
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "shelf", "config.yaml")
}

func (a *app) init() error {
	if a.output != "text" && a.output != "json" {
		return errors.New("--output must be text or json")
	}

	a.conf = new(model.Config)
	return utils.FirstError(
		loadDotenv,
		func() error { return a.conf.Read(a.configPath) },
		func() error {
			if a.apiURL != "" {
				a.conf.APIBaseURL = strings.TrimRight(a.apiURL, "/")
			}
			if a.debug {
				a.conf.Debug = true
				a.conf.LogLevel = "debug"
			}
			a.log = logger.New(logger.Config{Env: a.conf.LogEnv, Level: a.conf.LogLevel})
			return nil
		},
		a.openStore,
		func() error {
			client := apiclient.NewFromConfig(a.conf, a.store, apiclient.WithLogger(a.log))
			a.api = resource.NewAPI(client, idempotency.New(a.conf.IdempotencyFormat))
			return nil
		},
	)
}

func loadDotenv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (a *app) openStore() error {
	if a.store != nil {
		return nil
	}
	s, err := tokenstore.Open(a.conf)
	if err != nil {
		return err
	}
	a.store = s
	return nil
}

// Describe renders err for the terminal, adding a hint for errors the user
// can act on.
func Describe(err error) string {
	ne, ok := model.AsNormalized(err)
	switch {
	case !ok:
		return err.Error()
	case ne.Unauthorized():
		return ne.Error() + "\nsession expired or missing, run `shelf login` to sign in again"
	case ne.Unreachable():
		return ne.Error() + "\ncheck --api-url or SHELF_API_BASE_URL"
	default:
		return ne.Error()
	}
}
