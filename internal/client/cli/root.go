package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/mediagate/internal/buildinfo"
	"github.com/dmitrijs2005/mediagate/internal/client/config"
)

// rootOptions holds the persistent flags; cfg is filled in before any
// subcommand runs.
type rootOptions struct {
	configPath  string
	issuer      string
	endpoint    string
	publicKey   string
	folder      string
	fileName    string
	accessToken string
	timeout     time.Duration

	cfg *config.Config
}

// load builds the config from defaults, the JSON file and the environment,
// then applies the flags the user actually set.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("issuer") {
		cfg.IssuerURL = o.issuer
	}
	if flags.Changed("endpoint") {
		cfg.UploadEndpoint = o.endpoint
	}
	if flags.Changed("public-key") {
		cfg.PublicKey = o.publicKey
	}
	if flags.Changed("folder") {
		cfg.Folder = o.folder
	}
	if flags.Changed("file-name") {
		cfg.FileName = o.fileName
	}
	if flags.Changed("access-token") {
		cfg.AccessToken = o.accessToken
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = o.timeout
	}

	o.cfg = cfg
	return nil
}

// NewRootCommand returns the mediagate command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(o *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "mediagate",
		Short: "Upload images to an ImageKit-compatible media host",
		Long: `mediagate fetches a short-lived upload token from the issuer and
uploads one file per attempt to the media host, printing the hosted URL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return o.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "path to a JSON config file")
	pf.StringVar(&o.issuer, "issuer", "", "token issuer base URL")
	pf.StringVar(&o.endpoint, "endpoint", "", "media host upload endpoint")
	pf.StringVar(&o.publicKey, "public-key", "", "public key sent with uploads")
	pf.StringVar(&o.folder, "folder", "", "destination folder")
	pf.StringVar(&o.fileName, "file-name", "", "requested file name (empty: local name)")
	pf.StringVar(&o.accessToken, "access-token", "", "bearer token for a guarded issuer")
	pf.DurationVar(&o.timeout, "timeout", 0, "per-request timeout")

	root.AddCommand(
		newUploadCommand(o),
		newWatchCommand(o),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}
