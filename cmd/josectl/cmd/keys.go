package cmd

import (
	"crypto"
	_ "crypto/sha512"
	"fmt"
	"os"

	"github.com/commune-sh/matrix-authentication-service/internal/logger"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk/thumbprint"
	"github.com/commune-sh/matrix-authentication-service/pkg/keyutil"
	"github.com/spf13/cobra"
)

func (c *cli) keysCommand() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage JWK sets",
	}

	keys.AddCommand(
		c.keysGenerateCommand(),
		c.keysPublicCommand(),
		c.keysImportCommand(),
		c.keysThumbprintCommand(),
	)

	return keys
}

func (c *cli) keysGenerateCommand() *cobra.Command {
	var (
		algs      []string
		randomKID bool
		pin       bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a private JWK set with one key per algorithm",
		Example: `  josectl keys generate --alg ES256 --alg EdDSA > private.json
  josectl keys generate --alg RS256 --random-kid --pin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(algs) == 0 {
				return fmt.Errorf("at least one --alg is required")
			}

			set := jwk.KeySet{Keys: make([]jwk.Key, 0, len(algs))}
			for _, name := range algs {
				alg, err := jwa.Parse(name)
				if err != nil {
					return err
				}

				var opts []jwk.KeyOption
				if randomKID {
					opts = append(opts, jwk.WithKeyID(keyutil.NewKeyID()))
				}
				if pin {
					opts = append(opts, jwk.WithAlgorithm(alg))
				}

				key, err := keyutil.Generate(alg, opts...)
				if err != nil {
					return err
				}
				c.log.Debug("generated key", logger.KeyID(key.ID), logger.Algorithm(alg))
				set.Keys = append(set.Keys, key)
			}

			return c.output(cmd.OutOrStdout(), set)
		},
	}

	cmd.Flags().StringSliceVarP(&algs, "alg", "a", nil, "Signature algorithm of a key to generate (repeatable)")
	cmd.Flags().BoolVar(&randomKID, "random-kid", false, "Use random key ids instead of thumbprints")
	cmd.Flags().BoolVar(&pin, "pin", false, "Set the alg parameter of each key")

	return cmd
}

func (c *cli) keysPublicCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "public",
		Short: "Print the public form of a JWK set",
		Long: `Print the public form of the key set given with --keyset.

Private members are removed. Shared secrets have no public form and are dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := c.readKeySet(cmd)
			if err != nil {
				return err
			}

			public := set.Public()
			if dropped := set.Len() - public.Len(); dropped > 0 {
				c.log.Warn("dropped keys without a public form", logger.Count(dropped))
			}

			return c.output(cmd.OutOrStdout(), public)
		},
	}
}

func (c *cli) keysImportCommand() *cobra.Command {
	var (
		kid    string
		use    string
		public bool
	)

	cmd := &cobra.Command{
		Use:   "import <pem-file>",
		Short: "Convert a PEM key to a JWK set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			opts := []jwk.KeyOption{jwk.WithUse(use)}
			if kid != "" {
				opts = append(opts, jwk.WithKeyID(kid))
			}

			var key jwk.Key
			if public {
				key, err = keyutil.ParsePublicKeyJWK(f, opts...)
			} else {
				key, err = keyutil.ParsePrivateKeyJWK(f, opts...)
			}
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}

			return c.output(cmd.OutOrStdout(), jwk.NewKeySet(key))
		},
	}

	cmd.Flags().StringVar(&kid, "kid", "", "Key id (default: SHA-256 thumbprint)")
	cmd.Flags().StringVar(&use, "use", jwk.UseSignature, "Key use")
	cmd.Flags().BoolVar(&public, "public", false, "The PEM file holds a public key")

	return cmd
}

func (c *cli) keysThumbprintCommand() *cobra.Command {
	var hash string

	cmd := &cobra.Command{
		Use:   "thumbprint",
		Short: "Print the RFC 7638 thumbprint of every key in a JWK set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var h crypto.Hash
			switch hash {
			case "sha256":
				h = crypto.SHA256
			case "sha384":
				h = crypto.SHA384
			case "sha512":
				h = crypto.SHA512
			default:
				return fmt.Errorf("unsupported hash %q", hash)
			}

			set, err := c.readKeySet(cmd)
			if err != nil {
				return err
			}

			type entry struct {
				KeyID      string `json:"kid,omitempty"`
				Thumbprint string `json:"thumbprint"`
			}
			entries := make([]entry, 0, set.Len())
			for _, key := range set.Keys {
				tp, err := thumbprint.GenerateString(key, h)
				if err != nil {
					return err
				}
				entries = append(entries, entry{KeyID: key.ID, Thumbprint: tp})
			}

			return c.output(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVar(&hash, "hash", "sha256", "Hash: sha256, sha384, sha512")

	return cmd
}
