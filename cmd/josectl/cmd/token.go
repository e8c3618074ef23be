package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/commune-sh/matrix-authentication-service/internal/logger"
	"github.com/commune-sh/matrix-authentication-service/pkg/header"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
	"github.com/commune-sh/matrix-authentication-service/pkg/jws"
	"github.com/commune-sh/matrix-authentication-service/pkg/keystore"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okFmt   = color.New(color.FgGreen, color.Bold)
	errFmt  = color.New(color.FgRed, color.Bold)
	warnFmt = color.New(color.FgYellow)
)

// decoded is the printed form of a message.
type decoded struct {
	Header  header.Header `json:"header"`
	Payload any           `json:"payload"`
}

func newDecoded(m *jws.Message) decoded {
	var payload any = string(m.Payload())
	if json.Valid(m.Payload()) {
		payload = json.RawMessage(m.Payload())
	}
	return decoded{Header: m.Header(), Payload: payload}
}

// readInput returns the argument, or stdin when it is "-" or missing.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (c *cli) signCommand() *cobra.Command {
	var (
		algName string
		kid     string
		typ     string
		payload string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a payload with a key from the key set",
		Example: `  josectl sign -k private.json --alg ES256 --payload '{"sub":"alice"}'
  echo -n '{"sub":"alice"}' | josectl sign -k private.json --alg EdDSA --kid my-key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := jwa.Parse(algName)
			if err != nil {
				return err
			}

			set, err := c.readKeySet(cmd)
			if err != nil {
				return err
			}

			key, err := selectSigningKey(set, alg, kid)
			if err != nil {
				return err
			}

			body := []byte(payload)
			if !cmd.Flags().Changed("payload") {
				if body, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			h := header.New(alg).WithKeyID(key.ID)
			if typ != "" {
				h = h.WithType(typ)
			}

			msg, err := jws.Sign(h, body, key, nil)
			if err != nil {
				return err
			}
			c.log.Debug("signed payload", logger.KeyID(key.ID), logger.Algorithm(alg))

			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg.String())
			return err
		},
	}

	cmd.Flags().StringVarP(&algName, "alg", "a", "", "Signature algorithm")
	cmd.Flags().StringVar(&kid, "kid", "", "Id of the signing key (default: first key supporting --alg)")
	cmd.Flags().StringVar(&typ, "typ", header.TypeJWT, "Header typ, empty to omit")
	cmd.Flags().StringVarP(&payload, "payload", "p", "", "Payload (default: read from stdin)")
	_ = cmd.MarkFlagRequired("alg")

	return cmd
}

func selectSigningKey(set jwk.KeySet, alg jwa.Algorithm, kid string) (jwk.Key, error) {
	if kid == "" {
		key, ok := set.SigningKeyForAlgorithm(alg)
		if !ok {
			return jwk.Key{}, fmt.Errorf("no private key in the key set supports %s", alg)
		}
		return key, nil
	}

	candidates := set.Find(kid)
	if len(candidates) == 0 {
		return jwk.Key{}, fmt.Errorf("no key with id %q", kid)
	}
	key, ok := jwk.NewKeySet(candidates...).SigningKeyForAlgorithm(alg)
	if !ok {
		return jwk.Key{}, fmt.Errorf("key %q cannot sign with %s", kid, alg)
	}
	return key, nil
}

func (c *cli) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [token|-]",
		Short: "Verify a compact token against a key set",
		Long: `Verify a compact token against the key set given with --keyset,
or the remote key set given with --jwks-url.

The key is chosen from the token header: its algorithm must be usable with
the key and, when the header names a kid, the key id must match it.
Claims such as exp are not checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenFromStdin := len(args) == 0 || args[0] == "-"
			if tokenFromStdin && c.cfg.KeySet == "-" && c.cfg.JWKSURL == "" {
				return fmt.Errorf("cannot read both the token and the key set from stdin")
			}

			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			msg, err := jws.Parse(input)
			if err != nil {
				return err
			}

			store, err := c.verificationStore(cmd)
			if err != nil {
				return err
			}

			if err := store.Verify(msg); err != nil {
				errFmt.Fprintln(cmd.ErrOrStderr(), "signature invalid")
				c.log.Debug("verification failed", logger.Algorithm(msg.Header().Algorithm), logger.KeyID(msg.Header().KeyID))
				return err
			}

			okFmt.Fprintln(cmd.ErrOrStderr(), "signature valid")
			return c.output(cmd.OutOrStdout(), newDecoded(msg))
		},
	}
}

// verificationStore loads the key set used by verify into a store.
func (c *cli) verificationStore(cmd *cobra.Command) (*keystore.Store, error) {
	var source keystore.Source
	switch {
	case c.cfg.JWKSURL != "":
		source = keystore.URLSource{URL: c.cfg.JWKSURL}
	case c.cfg.KeySet != "" && c.cfg.KeySet != "-":
		source = keystore.FileSource(c.cfg.KeySet)
	default:
		set, err := c.readKeySet(cmd)
		if err != nil {
			return nil, err
		}
		return keystore.NewWithKeySet(set, keystore.WithLogger(c.log))
	}

	store := keystore.New(keystore.WithSource(source), keystore.WithLogger(c.log))
	if err := store.Refresh(cmd.Context()); err != nil {
		return nil, err
	}
	return store, nil
}

func (c *cli) decodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [token|-]",
		Short: "Decode a compact token without verifying it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			msg, err := jws.Parse(input)
			if err != nil {
				return err
			}

			warnFmt.Fprintln(cmd.ErrOrStderr(), "signature not verified")
			return c.output(cmd.OutOrStdout(), newDecoded(msg))
		},
	}
}
