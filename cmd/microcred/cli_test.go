package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/microcred/microcred-core/pkg/credential"
	"github.com/microcred/microcred-core/pkg/crypto"
	"github.com/microcred/microcred-core/pkg/did"
	"github.com/microcred/microcred-core/pkg/trust"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvidence(t *testing.T) {
	tests := []struct {
		raw      string
		wantName string
		wantURL  string
		wantType credential.EvidenceType
		wantErr  bool
	}{
		{
			raw:      "Web Server=https://github.com/alice/server:project",
			wantName: "Web Server",
			wantURL:  "https://github.com/alice/server",
			wantType: credential.EvidenceProject,
		},
		{
			raw:      "Exam=https://exams.example.edu:8443/alice:assessment",
			wantName: "Exam",
			wantURL:  "https://exams.example.edu:8443/alice",
			wantType: credential.EvidenceAssessment,
		},
		{
			raw:      "Talk=https://example.com/talk:Conference talk",
			wantName: "Talk",
			wantURL:  "https://example.com/talk",
			wantType: credential.OtherEvidence("Conference talk"),
		},
		{raw: "no-equals", wantErr: true},
		{raw: "=https://example.com:project", wantErr: true},
		{raw: "Name=no-type", wantErr: true},
		{raw: "Name=https://example.com:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ev, err := parseEvidence(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, ev.Name)
			assert.Equal(t, tt.wantURL, ev.URL)
			assert.Equal(t, tt.wantType, ev.Type)
		})
	}
}

func TestParseMetadata(t *testing.T) {
	meta, err := parseMetadata([]string{"course=CS101", "note=a=b", "course=CS102"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"course": "CS102", "note": "a=b"}, meta)

	_, err = parseMetadata([]string{"missing"})
	assert.Error(t, err)
	_, err = parseMetadata([]string{"=value"})
	assert.Error(t, err)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between runs.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// setupCLI writes a config that keeps all state under a temp dir.
func setupCLI(t *testing.T) (dir, cfgFile string) {
	t.Helper()
	for _, k := range []string{"MICROCRED_LOG_LEVEL", "MICROCRED_LOG_ENV", "MICROCRED_TRUST_PATH", "MICROCRED_ISSUER_KEY", "MICROCRED_ISSUER_IDENTITY", "MICROCRED_DEFAULT_TTL"} {
		t.Setenv(k, "")
	}

	dir = t.TempDir()
	cfgFile = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(fmt.Sprintf(`
log:
  level: error
trust:
  dir: %s
issuer:
  key_file: %s
  identity_file: %s
`, filepath.Join(dir, "trust"), filepath.Join(dir, "issuer.jwk"), filepath.Join(dir, "issuer.json"))), 0600))
	return dir, cfgFile
}

func TestCLI_IssueAndVerify(t *testing.T) {
	dir, cfgFile := setupCLI(t)

	out, err := execute(t, "--config", cfgFile, "issuer", "init", "--name", "Test University", "--url", "https://test.edu", "--trust")
	require.NoError(t, err)
	assert.Contains(t, out, "Test University")

	_, err = execute(t, "--config", cfgFile, "issuer", "init", "--name", "Test University")
	assert.ErrorContains(t, err, "already exists")

	identity, err := trust.ReadIssuerFile(filepath.Join(dir, "issuer.json"))
	require.NoError(t, err)

	credFile := filepath.Join(dir, "cred.json")
	_, err = execute(t, "--config", cfgFile, "issue",
		"--subject-name", "Test Student",
		"--subject-email", "test@example.com",
		"--skill-id", "test-skill",
		"--skill-name", "Test Skill",
		"--skill-level", "Intermediate",
		"--evidence", "Test Evidence=https://example.com/evidence:project",
		"--meta", "course=CS101",
		"--out", credFile)
	require.NoError(t, err)

	data, err := os.ReadFile(credFile)
	require.NoError(t, err)
	cred, err := credential.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, cred.Issuer.ID)
	assert.Equal(t, credential.LevelIntermediate, cred.Skill.Level)
	assert.Equal(t, "CS101", cred.Metadata["course"])
	assert.Nil(t, cred.ExpiresAt)
	assert.Len(t, cred.Signature, crypto.SignatureSize)

	out, err = execute(t, "--config", cfgFile, "verify", credFile)
	require.NoError(t, err)
	assert.Contains(t, out, "VALID")

	out, err = execute(t, "--config", cfgFile, "trust", "list")
	require.NoError(t, err)
	assert.Contains(t, out, identity.ID.String())
	assert.Contains(t, out, did.NewKeyDID(identity.PublicKey))

	// Tampered copy fails, the original still passes.
	tampered := filepath.Join(dir, "tampered.json")
	require.NoError(t, os.WriteFile(tampered, []byte(strings.Replace(string(data), "Test Student", "Mallory", 1)), 0600))
	out, err = execute(t, "--config", cfgFile, "verify", credFile, tampered)
	assert.Error(t, err)
	assert.Contains(t, out, "CREDENTIAL_SIGNATURE_INVALID")

	_, err = execute(t, "--config", cfgFile, "trust", "remove", identity.ID.String())
	require.NoError(t, err)

	out, err = execute(t, "--config", cfgFile, "verify", credFile)
	assert.Error(t, err)
	assert.Contains(t, out, "CREDENTIAL_ISSUER_UNTRUSTED")

	_, err = execute(t, "--config", cfgFile, "trust", "remove", identity.ID.String())
	assert.ErrorContains(t, err, "issuer not found")

	out, err = execute(t, "--config", cfgFile, "trust", "add", filepath.Join(dir, "issuer.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "Added issuer")
}

func TestCLI_KeyGen(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "k.jwk")
	pub := filepath.Join(dir, "k.pub.jwk")

	out, err := execute(t, "--config", filepath.Join(dir, "none.yaml"), "key", "gen", "--out-priv", priv, "--out-pub", pub, "--show-did")
	require.NoError(t, err)

	keys, err := crypto.ReadSecretKeyFile(priv)
	require.NoError(t, err)
	assert.Equal(t, did.NewKeyDID(keys.PublicKey()), strings.TrimSpace(out))

	info, err := os.Stat(priv)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCLI_Demo(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "Credential verification: VALID")
	assert.Contains(t, out, `"signature"`)
}

func TestCLI_IssueWithoutEvidence(t *testing.T) {
	dir, cfgFile := setupCLI(t)

	_, err := execute(t, "--config", cfgFile, "issuer", "init", "--name", "Test University", "--trust")
	require.NoError(t, err)

	credFile := filepath.Join(dir, "bare.json")
	_, err = execute(t, "--config", cfgFile, "issue",
		"--subject-name", "Test Student",
		"--skill-id", "test-skill",
		"--out", credFile)
	require.NoError(t, err)

	data, err := os.ReadFile(credFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"evidence": []`)

	out, err := execute(t, "--config", cfgFile, "verify", credFile)
	require.NoError(t, err)
	assert.Contains(t, out, "VALID")
}

func TestCLI_VerifyFailFast(t *testing.T) {
	dir, cfgFile := setupCLI(t)

	_, err := execute(t, "--config", cfgFile, "issuer", "init", "--name", "Test University", "--trust")
	require.NoError(t, err)

	good := filepath.Join(dir, "good.json")
	_, err = execute(t, "--config", cfgFile, "issue", "--subject-name", "Test Student", "--skill-id", "test-skill", "--out", good)
	require.NoError(t, err)

	data, err := os.ReadFile(good)
	require.NoError(t, err)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(strings.Replace(string(data), "Test Student", "Mallory", 1)), 0600))
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0600))

	out, err := execute(t, "--config", cfgFile, "verify", "--fail-fast", good, good)
	require.NoError(t, err)
	assert.Contains(t, out, "2 credential(s) VALID")

	out, err = execute(t, "--config", cfgFile, "verify", "--fail-fast", good, bad, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential 1")
	assert.Contains(t, err.Error(), "CREDENTIAL_SIGNATURE_INVALID")
	assert.Empty(t, out)

	_, err = execute(t, "--config", cfgFile, "verify", "--fail-fast", good, broken, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), broken)
	assert.Contains(t, err.Error(), "CREDENTIAL_SERIALIZATION_ERROR")
}

func TestCLI_TrustAddExpectDID(t *testing.T) {
	dir, cfgFile := setupCLI(t)

	_, err := execute(t, "--config", cfgFile, "issuer", "init", "--name", "Test University")
	require.NoError(t, err)
	identityFile := filepath.Join(dir, "issuer.json")
	identity, err := trust.ReadIssuerFile(identityFile)
	require.NoError(t, err)

	other := did.NewKeyDID(crypto.GenerateKeyPair().PublicKey())
	_, err = execute(t, "--config", cfgFile, "trust", "add", identityFile, "--expect-did", other)
	assert.ErrorContains(t, err, "refusing to trust")

	_, err = execute(t, "--config", cfgFile, "trust", "add", identityFile, "--expect-did", "did:key:not-a-key")
	assert.ErrorIs(t, err, did.ErrInvalidKeyDID)

	out, err := execute(t, "--config", cfgFile, "trust", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No trusted issuers")

	out, err = execute(t, "--config", cfgFile, "trust", "add", identityFile, "--expect-did", did.NewKeyDID(identity.PublicKey))
	require.NoError(t, err)
	assert.Contains(t, out, identity.ID.String())
}
