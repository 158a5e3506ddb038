package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/microcred/microcred-core/pkg/crypto"
	"github.com/microcred/microcred-core/pkg/issuer"
	"github.com/microcred/microcred-core/pkg/trust"
	"github.com/spf13/cobra"
)

var (
	issuerName  string
	issuerURL   string
	issuerTrust bool
	issuerForce bool
)

var issuerCmd = &cobra.Command{
	Use:   "issuer",
	Short: "Manage the local issuer identity",
}

var issuerInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new issuer",
	Long: `Create a new issuer with a fresh id and Ed25519 key pair.

The secret key is written to issuer.key_file as a private JWK (0600) and the
public identity to issuer.identity_file. Share the identity file with
verifiers so they can add it to their trust store.`,
	Example: `  microcred issuer init --name "Test University" --url https://test.edu --trust`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if issuerName == "" {
			return fmt.Errorf("--name is required")
		}

		keyFile, identityFile := cfg.Issuer.KeyFile, cfg.Issuer.IdentityFile
		if !issuerForce {
			for _, p := range []string{keyFile, identityFile} {
				if _, err := os.Stat(p); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", p)
				}
			}
		}
		for _, p := range []string{keyFile, identityFile} {
			if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", p, err)
			}
		}

		svc := issuer.New(issuerName, issuerURL, issuer.WithLogger(logger))
		if err := svc.WriteKeyFile(keyFile); err != nil {
			return err
		}
		if err := trust.WriteIssuerFile(identityFile, svc.Identity()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Issuer %q created\n", issuerName)
		fmt.Fprintf(out, "   ID:       %s\n", svc.Identity().ID)
		fmt.Fprintf(out, "   did:key:  %s\n", svc.KeyDID())
		fmt.Fprintf(out, "   Key:      %s\n", keyFile)
		fmt.Fprintf(out, "   Identity: %s\n", identityFile)

		if issuerTrust {
			store, err := trust.NewFileStore(cfg.Trust.Dir)
			if err != nil {
				return fmt.Errorf("failed to open trust store: %w", err)
			}
			if err := store.Add(svc.Identity()); err != nil {
				return fmt.Errorf("failed to trust issuer: %w", err)
			}
			fmt.Fprintf(out, "✅ Added to trust store %s\n", store.Dir())
		}
		return nil
	},
}

var issuerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the issuer identity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := loadIssuer()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(svc.Identity(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// loadIssuer restores the configured issuer from its identity and key files.
func loadIssuer() (*issuer.Service, error) {
	identity, err := trust.ReadIssuerFile(cfg.Issuer.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load issuer identity (run 'microcred issuer init'): %w", err)
	}

	keys, err := crypto.ReadSecretKeyFile(cfg.Issuer.KeyFile)
	if err != nil {
		return nil, err
	}
	defer keys.Destroy()

	secret := keys.SecretKey()
	defer clear(secret)

	return issuer.FromExisting(*identity, secret, issuer.WithLogger(logger))
}

func init() {
	rootCmd.AddCommand(issuerCmd)
	issuerCmd.AddCommand(issuerInitCmd)
	issuerCmd.AddCommand(issuerShowCmd)

	issuerInitCmd.Flags().StringVar(&issuerName, "name", "", "Issuer display name")
	issuerInitCmd.Flags().StringVar(&issuerURL, "url", "", "Issuer URL")
	issuerInitCmd.Flags().BoolVar(&issuerTrust, "trust", false, "Also add the new issuer to the local trust store")
	issuerInitCmd.Flags().BoolVar(&issuerForce, "force", false, "Overwrite existing issuer files")
}
