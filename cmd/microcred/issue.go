package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcred/microcred-core/pkg/credential"
	"github.com/spf13/cobra"
)

var (
	issueSubjectID    string
	issueSubjectName  string
	issueSubjectEmail string
	issueSkillID      string
	issueSkillName    string
	issueSkillDesc    string
	issueSkillLevel   string
	issueEvidence     []string
	issueMeta         []string
	issueTTL          time.Duration
	issueOut          string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a signed credential",
	Long: `Issue a credential signed by the configured issuer.

Evidence is given as name=url:type, where type is project, assessment,
portfolio, certification or any other free text. The part after the last
colon is the type, so URLs may contain colons.

Without --ttl the credential.default_ttl config value applies; zero means
the credential never expires.`,
	Example: `  microcred issue \
    --subject-name "Alice Developer" --subject-email alice@example.com \
    --skill-id rust-programming --skill-name "Rust Programming" --skill-level advanced \
    --evidence "Web Server=https://github.com/alice/rust-webserver:project" \
    --meta course=RS301 --ttl 8760h --out alice.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		level := credential.SkillLevel(strings.ToLower(issueSkillLevel))
		if !level.Valid() {
			return fmt.Errorf("%w: %q", credential.ErrInvalidSkillLevel, issueSkillLevel)
		}

		subject := credential.Subject{Name: issueSubjectName, Email: issueSubjectEmail}
		if issueSubjectID != "" {
			id, err := uuid.Parse(issueSubjectID)
			if err != nil {
				return fmt.Errorf("invalid --subject-id: %w", err)
			}
			subject.ID = id
		} else {
			subject.ID = uuid.New()
		}

		evidence := make([]credential.Evidence, 0, len(issueEvidence))
		for _, raw := range issueEvidence {
			ev, err := parseEvidence(raw)
			if err != nil {
				return err
			}
			evidence = append(evidence, ev)
		}

		metadata, err := parseMetadata(issueMeta)
		if err != nil {
			return err
		}

		ttl := issueTTL
		if !cmd.Flags().Changed("ttl") {
			if ttl, err = cfg.TTL(); err != nil {
				return err
			}
		}

		svc, err := loadIssuer()
		if err != nil {
			return err
		}

		var expiresAt *time.Time
		if ttl > 0 {
			t := time.Now().Add(ttl)
			expiresAt = &t
		}

		skill := credential.Skill{
			ID:          issueSkillID,
			Name:        issueSkillName,
			Description: issueSkillDesc,
			Level:       level,
		}
		draft := svc.NewDraft(subject, skill, evidence, expiresAt)
		for k, v := range metadata {
			draft.AddMetadata(k, v)
		}

		signed, err := svc.Sign(draft)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(signed, "", "  ")
		if err != nil {
			return err
		}

		if issueOut == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		if err := os.WriteFile(issueOut, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write credential: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Credential %s saved to %s\n", signed.ID(), issueOut)
		return nil
	},
}

// parseEvidence parses name=url:type.
func parseEvidence(raw string) (credential.Evidence, error) {
	name, rest, ok := strings.Cut(raw, "=")
	if !ok || name == "" {
		return credential.Evidence{}, fmt.Errorf("invalid evidence %q: expected name=url:type", raw)
	}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return credential.Evidence{}, fmt.Errorf("invalid evidence %q: missing :type", raw)
	}

	typ, err := credential.ParseEvidenceType(rest[i+1:])
	if err != nil {
		return credential.Evidence{}, fmt.Errorf("invalid evidence %q: %w", raw, err)
	}

	return credential.Evidence{
		ID:   uuid.New(),
		Name: name,
		URL:  rest[:i],
		Type: typ,
	}, nil
}

// parseMetadata parses key=value pairs. Later keys win.
func parseMetadata(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(issueCmd)

	f := issueCmd.Flags()
	f.StringVar(&issueSubjectID, "subject-id", "", "Subject UUID (random if empty)")
	f.StringVar(&issueSubjectName, "subject-name", "", "Subject name")
	f.StringVar(&issueSubjectEmail, "subject-email", "", "Subject email")
	f.StringVar(&issueSkillID, "skill-id", "", "Skill identifier")
	f.StringVar(&issueSkillName, "skill-name", "", "Skill name")
	f.StringVar(&issueSkillDesc, "skill-description", "", "Skill description")
	f.StringVar(&issueSkillLevel, "skill-level", "beginner", "beginner, intermediate, advanced or expert")
	f.StringArrayVar(&issueEvidence, "evidence", nil, "Evidence as name=url:type (repeatable)")
	f.StringArrayVar(&issueMeta, "meta", nil, "Metadata as key=value (repeatable)")
	f.DurationVar(&issueTTL, "ttl", 0, "Validity period (0 = never expires)")
	f.StringVarP(&issueOut, "out", "o", "", "Write the credential to a file instead of stdout")

	_ = issueCmd.MarkFlagRequired("subject-name")
	_ = issueCmd.MarkFlagRequired("skill-id")
}
