package trust

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/microcred/microcred-core/pkg/credential"
)

// FileStore implements Store using the filesystem. Each issuer identity is
// kept in <dir>/<id>.json and index.json records insertion order.
// Default location: ~/.microcred/trust/
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// DefaultTrustDir returns the default trust store directory.
func DefaultTrustDir() string {
	if envPath := os.Getenv("MICROCRED_TRUST_PATH"); envPath != "" {
		return envPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".microcred/trust"
	}
	return filepath.Join(home, ".microcred", "trust")
}

// NewFileStore creates a new file-based trust store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultTrustDir()
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create trust directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) issuerPath(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

func (s *FileStore) indexPath() string {
	return filepath.Join(s.dir, "index.json")
}

// Add writes the issuer identity and appends its id to the index.
func (s *FileStore) Add(issuer credential.Issuer) error {
	if err := Validate(issuer); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(issuer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal issuer: %w", err)
	}
	if err := os.WriteFile(s.issuerPath(issuer.ID), data, 0600); err != nil {
		return fmt.Errorf("failed to write issuer: %w", err)
	}

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	if slices.Contains(index, issuer.ID) {
		return nil
	}
	return s.saveIndex(append(index, issuer.ID))
}

// Get retrieves an issuer by id.
func (s *FileStore) Get(id uuid.UUID) (*credential.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(id)
}

func (s *FileStore) read(id uuid.UUID) (*credential.Issuer, error) {
	data, err := os.ReadFile(s.issuerPath(id))
	if os.IsNotExist(err) {
		return nil, ErrIssuerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read issuer: %w", err)
	}

	var issuer credential.Issuer
	if err := json.Unmarshal(data, &issuer); err != nil {
		return nil, fmt.Errorf("failed to parse issuer %s: %w", id, err)
	}
	if err := Validate(issuer); err != nil {
		return nil, fmt.Errorf("trust store entry %s: %w", s.issuerPath(id), err)
	}
	return &issuer, nil
}

// List returns all issuers in insertion order. Index entries whose file is
// missing, unreadable or invalid are skipped.
func (s *FileStore) List() ([]credential.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	issuers := make([]credential.Issuer, 0, len(index))
	for _, id := range index {
		issuer, err := s.read(id)
		if err != nil {
			continue
		}
		issuers = append(issuers, *issuer)
	}
	return issuers, nil
}

// Remove deletes the issuer file and its index entry.
func (s *FileStore) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.issuerPath(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ErrIssuerNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove issuer: %w", err)
	}

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	return s.saveIndex(slices.DeleteFunc(index, func(other uuid.UUID) bool { return other == id }))
}

// AddFromFile imports an issuer identity document, as written by
// WriteIssuerFile, and returns the imported identity.
func (s *FileStore) AddFromFile(path string) (*credential.Issuer, error) {
	issuer, err := ReadIssuerFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.Add(*issuer); err != nil {
		return nil, fmt.Errorf("failed to add issuer %s: %w", issuer.ID, err)
	}
	return issuer, nil
}

func (s *FileStore) loadIndex() ([]uuid.UUID, error) {
	data, err := os.ReadFile(s.indexPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var index []uuid.UUID
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}
	return index, nil
}

func (s *FileStore) saveIndex(index []uuid.UUID) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	return nil
}

// WriteIssuerFile saves an issuer identity as indented JSON. The file holds
// only public information.
func WriteIssuerFile(path string, issuer credential.Issuer) error {
	data, err := json.MarshalIndent(issuer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal issuer: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write issuer file: %w", err)
	}
	return nil
}

// ReadIssuerFile loads and validates an issuer identity document.
func ReadIssuerFile(path string) (*credential.Issuer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read issuer file: %w", err)
	}

	var issuer credential.Issuer
	if err := json.Unmarshal(data, &issuer); err != nil {
		return nil, fmt.Errorf("failed to parse issuer file: %w", err)
	}
	if err := Validate(issuer); err != nil {
		return nil, err
	}
	return &issuer, nil
}
