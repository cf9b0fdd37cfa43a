package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/papa-aryan/ascii-web/internal/auth"
	"github.com/papa-aryan/ascii-web/internal/config"
	"github.com/papa-aryan/ascii-web/internal/content"
	appdb "github.com/papa-aryan/ascii-web/internal/db"
)

var (
	// Global flags
	contentType string
	verbose     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "blogctl",
	Short: "Admin tooling for the ascii-web content store",
	Long: `blogctl manages published content and drafts directly against the content store.

It reads the same environment the server does (.env is honoured), signs in with the
configured admin credentials, and operates on the content_items table.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&contentType, "type", "blog", `Content type to operate on ("blog" or "journal")`)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// env bundles everything a command needs: the repository and a lazily obtained
// admin token from the identity provider.
type env struct {
	cfg        *config.Config
	repository content.Repository
	gate       *auth.Service
	logger     *logrus.Logger

	closeDB func() error
	token   string
}

func newEnv() (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, eris.Wrap(err, "loading configuration")
	}

	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetOutput(io.Discard)
	}

	dbConn, err := appdb.Open(appdb.Options{URL: cfg.DatabaseURL, Path: cfg.DBPath})
	if err != nil {
		return nil, eris.Wrap(err, "opening database")
	}

	repository, err := content.NewRepository(dbConn, logger)
	if err != nil {
		_ = appdb.Close(dbConn)
		return nil, eris.Wrap(err, "building content repository")
	}

	identity, err := auth.NewClient(auth.ClientOptions{
		BaseURL: cfg.AuthURL,
		AnonKey: cfg.AuthAnonKey,
		Logger:  logger,
	})
	if err != nil {
		_ = appdb.Close(dbConn)
		return nil, eris.Wrap(err, "creating identity provider client")
	}

	gate, err := auth.NewService(identity, cfg.AdminEmail, logger)
	if err != nil {
		_ = appdb.Close(dbConn)
		return nil, eris.Wrap(err, "creating access gate")
	}

	return &env{
		cfg:        cfg,
		repository: repository,
		gate:       gate,
		logger:     logger,
		closeDB:    func() error { return appdb.Close(dbConn) },
	}, nil
}

func (e *env) close() {
	if e.closeDB != nil {
		_ = e.closeDB()
	}
	if e.token != "" {
		e.gate.SignOut(context.Background(), e.token)
	}
}

// adminToken signs in with the configured admin credentials. Commands that only read
// published content never call this, so a missing ADMIN_PASSWORD only blocks mutations.
func (e *env) adminToken(ctx context.Context) (string, error) {
	if e.token != "" {
		return e.token, nil
	}
	if e.cfg.AdminPassword == "" {
		return "", eris.New("ADMIN_PASSWORD environment variable is required for this command")
	}

	result, err := e.gate.SignIn(ctx, e.cfg.AdminEmail, e.cfg.AdminPassword)
	if err != nil {
		return "", eris.Wrap(err, "signing in as admin")
	}

	e.token = result.Session.AccessToken
	return e.token, nil
}

func parseContentType() (content.Type, error) {
	itemType := content.Type(contentType)
	if !itemType.Valid() {
		return "", eris.Errorf("invalid --type %q: must be %q or %q", contentType, content.TypeBlog, content.TypeJournal)
	}
	return itemType, nil
}
