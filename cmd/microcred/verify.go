package main

import (
	"fmt"
	"io"
	"os"

	"github.com/microcred/microcred-core/pkg/credential"
	"github.com/microcred/microcred-core/pkg/trust"
	"github.com/microcred/microcred-core/pkg/verifier"
	"github.com/spf13/cobra"
)

var verifyFailFast bool

var verifyCmd = &cobra.Command{
	Use:   "verify <file>...",
	Short: "Verify credentials against the local trust store",
	Long: `Verify one or more credential files. Use - to read from stdin.

Each credential is checked in order for expiry, signature presence, a
trusted issuer and a valid signature. One line is printed per credential.
The command fails if any credential is not valid. With --fail-fast it stops
at the first invalid credential and reports only that one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := trust.NewFileStore(cfg.Trust.Dir)
		if err != nil {
			return fmt.Errorf("failed to open trust store: %w", err)
		}
		v := verifier.New(verifier.WithStore(store), verifier.WithLogger(logger))

		if verifyFailFast {
			return verifyFailFastFiles(cmd, v, args)
		}

		creds := make([]*credential.Credential, len(args))
		parseErrs := make([]error, len(args))
		for i, path := range args {
			creds[i], parseErrs[i] = readCredential(cmd.InOrStdin(), path)
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, res := range v.VerifyCredentialChain(creds) {
			path := args[res.Index]
			switch {
			case parseErrs[res.Index] != nil:
				failed++
				fmt.Fprintf(out, "❌ %s: %s: %v\n", path, verifier.ErrCodeSerialization, parseErrs[res.Index])
			case res.Valid:
				fmt.Fprintf(out, "✅ %s: VALID (%s)\n", path, res.CredentialID)
			default:
				failed++
				fmt.Fprintf(out, "❌ %s: %s\n", path, res.Err)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d credential(s) failed verification", failed, len(args))
		}
		return nil
	},
}

// verifyFailFastFiles verifies files in order and stops at the first one
// that cannot be read or does not verify. Files after it are not checked.
func verifyFailFastFiles(cmd *cobra.Command, v *verifier.Verifier, paths []string) error {
	creds := make([]*credential.Credential, 0, len(paths))
	var parseErr error
	for _, path := range paths {
		cred, err := readCredential(cmd.InOrStdin(), path)
		if err != nil {
			parseErr = fmt.Errorf("%s: %s: %w", path, verifier.ErrCodeSerialization, err)
			break
		}
		creds = append(creds, cred)
	}

	if err := v.VerifyCredentialChainFailFast(creds); err != nil {
		return err
	}
	if parseErr != nil {
		return parseErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d credential(s) VALID\n", len(creds))
	return nil
}

func readCredential(stdin io.Reader, path string) (*credential.Credential, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	return credential.Parse(data)
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyFailFast, "fail-fast", false, "Stop at the first invalid credential")
}
