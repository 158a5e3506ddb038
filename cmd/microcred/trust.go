package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/microcred/microcred-core/pkg/did"
	"github.com/microcred/microcred-core/pkg/trust"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Manage trusted issuers",
	Long: `Manage the local trust store used by 'microcred verify'.

The trust store holds issuer identities (id, name, URL and public key).
Credentials are only accepted from issuers in the store, and only under
the public key recorded here.

Location: trust.dir in the config file, ~/.microcred/trust/ by default
(or $MICROCRED_TRUST_PATH)`,
}

var trustExpectDID string

var trustAddCmd = &cobra.Command{
	Use:   "add <identity.json>",
	Short: "Add an issuer identity to the trust store",
	Long: `Add an issuer identity to the trust store.

With --expect-did the identity's public key must match the given did:key,
for example one the issuer published through another channel.`,
	Example: `  # Trust an issuer from its published identity file
  microcred trust add test-university.json

  # Pin the key the issuer announced
  microcred trust add test-university.json --expect-did did:key:z6Mk...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if trustExpectDID != "" {
			identity, err := trust.ReadIssuerFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to add issuer: %w", err)
			}
			if err := checkKeyDID(identity.PublicKey, trustExpectDID); err != nil {
				return fmt.Errorf("refusing to trust issuer %s: %w", identity.ID, err)
			}
		}

		store, err := trust.NewFileStore(cfg.Trust.Dir)
		if err != nil {
			return fmt.Errorf("failed to open trust store: %w", err)
		}

		added, err := store.AddFromFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to add issuer: %w", err)
		}
		logger.Debug("trusted issuer added", zap.String("issuer_id", added.ID.String()), zap.String("name", added.Name))

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Added issuer: %s (%s)\n", added.Name, added.ID)
		return nil
	},
}

// checkKeyDID reports an error unless publicKey is the key encoded in keyDID.
func checkKeyDID(publicKey []byte, keyDID string) error {
	expected, err := did.PublicKeyFromKeyDID(keyDID)
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, publicKey) {
		return fmt.Errorf("public key does not match %s (identity key is %s)", keyDID, did.NewKeyDID(publicKey))
	}
	return nil
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trusted issuers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := trust.NewFileStore(cfg.Trust.Dir)
		if err != nil {
			return fmt.Errorf("failed to open trust store: %w", err)
		}

		issuers, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list issuers: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(issuers) == 0 {
			fmt.Fprintln(out, "No trusted issuers in store.")
			fmt.Fprintln(out, "\nAdd issuers with:")
			fmt.Fprintln(out, "  microcred trust add issuer.json")
			return nil
		}

		fmt.Fprintf(out, "🔑 Trusted Issuers (%d):\n\n", len(issuers))
		for _, iss := range issuers {
			fmt.Fprintf(out, "  %s\n", iss.Name)
			fmt.Fprintf(out, "    ID:      %s\n", iss.ID)
			fmt.Fprintf(out, "    URL:     %s\n", iss.URL)
			fmt.Fprintf(out, "    did:key: %s\n", did.NewKeyDID(iss.PublicKey))
			fmt.Fprintln(out)
		}

		fmt.Fprintf(out, "Trust store location: %s\n", store.Dir())
		return nil
	},
}

var trustRemoveCmd = &cobra.Command{
	Use:   "remove <issuer-id>",
	Short: "Remove an issuer from the trust store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid issuer id %q: %w", args[0], err)
		}

		store, err := trust.NewFileStore(cfg.Trust.Dir)
		if err != nil {
			return fmt.Errorf("failed to open trust store: %w", err)
		}

		if err := store.Remove(id); err != nil {
			if errors.Is(err, trust.ErrIssuerNotFound) {
				return fmt.Errorf("issuer not found: %s", id)
			}
			return fmt.Errorf("failed to remove issuer: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Removed issuer: %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trustCmd)
	trustCmd.AddCommand(trustAddCmd)
	trustCmd.AddCommand(trustListCmd)
	trustCmd.AddCommand(trustRemoveCmd)

	trustAddCmd.Flags().StringVar(&trustExpectDID, "expect-did", "", "Require the identity's public key to match this did:key")
}
