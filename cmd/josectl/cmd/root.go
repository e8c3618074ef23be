// Package cmd implements the josectl CLI commands.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/commune-sh/matrix-authentication-service/internal/config"
	"github.com/commune-sh/matrix-authentication-service/internal/logger"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
	"github.com/commune-sh/matrix-authentication-service/pkg/keystore"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Version is set at build time.
var Version = "0.1.0"

// Config holds the environment defaults of the global flags.
type Config struct {
	KeySet   string `env:"JOSECTL_KEYSET"`
	Output   string `env:"JOSECTL_OUTPUT" envDefault:"json"`
	LogLevel string `env:"JOSECTL_LOG_LEVEL" envDefault:"warn"`
	JWKSURL  string `env:"JOSECTL_JWKS_URL"`
}

// cli is the state shared by the commands of one invocation.
type cli struct {
	cfg Config
	log *slog.Logger
}

// Execute runs the root command configured from the environment.
func Execute() error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return New(cfg).Execute()
}

// New returns the root command, with flag defaults taken from cfg.
func New(cfg Config) *cobra.Command {
	c := &cli{cfg: cfg}

	root := &cobra.Command{
		Use:   "josectl",
		Short: "Sign, verify and inspect JSON Web Signatures",
		Long: `josectl works with JSON Web Signatures, JSON Web Tokens and JSON Web Keys.

It generates key sets, narrows private key sets to their public form,
signs payloads and verifies compact tokens against local or remote key sets.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch c.cfg.Output {
			case "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q", c.cfg.Output)
			}

			log, err := logger.New(c.cfg.LogLevel, logger.FormatText, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c.log = log
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.cfg.Output, "output", "o", cfg.Output, "Output format: json, yaml")
	flags.StringVarP(&c.cfg.KeySet, "keyset", "k", cfg.KeySet, "Path of a JWK set file, - for stdin")
	flags.StringVar(&c.cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&c.cfg.JWKSURL, "jwks-url", cfg.JWKSURL, "URL of a remote JWK set used for verification")

	root.AddCommand(
		c.keysCommand(),
		c.signCommand(),
		c.verifyCommand(),
		c.decodeCommand(),
	)

	return root
}

// readKeySet reads the key set named by --keyset.
func (c *cli) readKeySet(cmd *cobra.Command) (jwk.KeySet, error) {
	switch c.cfg.KeySet {
	case "":
		return jwk.KeySet{}, fmt.Errorf("no key set given, use --keyset or JOSECTL_KEYSET")
	case "-":
		return keystore.ReadSet(cmd.InOrStdin())
	default:
		return keystore.LoadFile(c.cfg.KeySet)
	}
}

// output writes v in the selected format. Values are passed through
// their JSON form first so JWKs keep their wire names in YAML too.
func (c *cli) output(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if c.cfg.Output == "yaml" {
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}
