package main

import (
	"fmt"

	"github.com/microcred/microcred-core/pkg/crypto"
	"github.com/microcred/microcred-core/pkg/did"
	"github.com/spf13/cobra"
)

var (
	keyOutPrivate string
	keyOutPublic  string
	keyShowDID    bool
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage Ed25519 keys",
}

var keyGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a new Ed25519 key pair",
	Long: `Generate a new Ed25519 key pair.

Outputs:
  - Private key in JWK format (for signing credentials)
  - Public key in JWK format
  - did:key identifier of the public key, also used as the JWK kid`,
	Example: `  # Generate keys with default names
  microcred key gen

  # Only print the did:key (for scripting)
  microcred key gen --out-priv issuer.jwk --out-pub issuer.pub.jwk --show-did`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		keys := crypto.GenerateKeyPair()
		defer keys.Destroy()

		didKey := did.NewKeyDID(keys.PublicKey())

		if err := crypto.WriteSecretKeyFile(keyOutPrivate, keys, didKey); err != nil {
			return err
		}
		if err := crypto.WritePublicKeyFile(keyOutPublic, keys.PublicKey(), didKey); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if keyShowDID {
			fmt.Fprintln(out, didKey)
			return nil
		}
		fmt.Fprintf(out, "✅ Private Key saved to %s\n", keyOutPrivate)
		fmt.Fprintf(out, "✅ Public Key saved to %s\n", keyOutPublic)
		fmt.Fprintf(out, "🔑 did:key: %s\n", didKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyGenCmd)

	keyGenCmd.Flags().StringVar(&keyOutPrivate, "out-priv", "private.jwk", "Output path for private key (JWK format)")
	keyGenCmd.Flags().StringVar(&keyOutPublic, "out-pub", "public.jwk", "Output path for public key (JWK format)")
	keyGenCmd.Flags().BoolVar(&keyShowDID, "show-did", false, "Only output did:key to stdout")
}
