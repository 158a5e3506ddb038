package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/microcred/microcred-core/pkg/credential"
	"github.com/microcred/microcred-core/pkg/issuer"
	"github.com/microcred/microcred-core/pkg/verifier"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Issue and verify a sample credential in memory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "=== Microcredential System Demo ===")
		fmt.Fprintln(out)

		svc := issuer.New("Go University", "https://go-university.edu", issuer.WithLogger(logger))
		fmt.Fprintf(out, "Created issuer: %s\n", svc.Identity().Name)

		subject := credential.Subject{
			ID:    uuid.New(),
			Name:  "Alice Developer",
			Email: "alice@example.com",
		}
		skill := credential.Skill{
			ID:          "go-programming",
			Name:        "Go Programming",
			Description: "Proficiency in the Go programming language",
			Level:       credential.LevelAdvanced,
		}
		evidence := []credential.Evidence{
			{
				ID:          uuid.New(),
				Name:        "Web Server Project",
				Description: "Built a high-performance web server with net/http",
				URL:         "https://github.com/alice/go-webserver",
				Type:        credential.EvidenceProject,
			},
			{
				ID:          uuid.New(),
				Name:        "Go Certification Assessment",
				Description: "Passed advanced Go programming assessment",
				URL:         "https://assessments.go-university.edu/alice/cert-123",
				Type:        credential.EvidenceAssessment,
			},
		}

		signed, err := svc.IssueCredential(subject, skill, evidence, nil)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Issued credential for: %s\n", signed.Subject().Name)
		fmt.Fprintf(out, "Skill: %s (Level: %s)\n", signed.Skill().Name, signed.Skill().Level)
		fmt.Fprintf(out, "Evidence count: %d\n", len(signed.Evidence()))
		fmt.Fprintf(out, "Credential ID: %s\n", signed.ID())
		fmt.Fprintf(out, "Digest: %s\n", signed.Digest())
		fmt.Fprintf(out, "Is valid: %t\n", signed.IsValid())

		v := verifier.New(verifier.WithLogger(logger))
		if err := v.AddTrustedIssuer(svc.Identity()); err != nil {
			return err
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "=== Verification Result ===")
		if ok, err := v.VerifySigned(signed); err != nil {
			fmt.Fprintf(out, "Verification failed: %v\n", err)
		} else {
			result := "INVALID"
			if ok {
				result = "VALID"
			}
			fmt.Fprintf(out, "Credential verification: %s\n", result)
		}

		data, err := json.MarshalIndent(signed, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "=== Credential JSON ===")
		fmt.Fprintln(out, string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
