package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/mipastel/pedidos-backend/pkg/logger"
	"github.com/mipastel/pedidos-backend/pkg/security"
)

// ProvisionParams controls how password hashes are loaded at startup.
type ProvisionParams struct {
	Path       string
	Strict     bool
	AdminHash  string
	BcryptCost int
	Logger     *logger.Logger
}

// LoadHashes reads the username→bcrypt map from the side-file. Missing files
// and missing accounts are generated from creds and written back, unless
// Strict is set. AdminHash, when present, replaces the admin entry.
func LoadHashes(ctx context.Context, creds []Credential, p ProvisionParams) (map[string]string, error) {
	if p.Path == "" {
		return nil, fmt.Errorf("password hashes file path is required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	ctx = logg.WithField(ctx, "hashes_file", p.Path)

	hashes, err := readHashes(p.Path)
	exists := err == nil
	switch {
	case errors.Is(err, os.ErrNotExist):
		if p.Strict {
			return nil, fmt.Errorf("password hashes file %s not found and strict credentials are enabled", p.Path)
		}
		hashes = map[string]string{}
	case err != nil:
		return nil, err
	}

	var invalid error
	for name, hash := range hashes {
		if verr := security.ValidateHash(hash); verr != nil {
			invalid = multierr.Append(invalid, fmt.Errorf("%s: %w", name, verr))
			delete(hashes, name)
		}
	}
	if invalid != nil {
		if p.Strict {
			return nil, invalid
		}
		logg.Warn(logg.WithField(ctx, "invalid", invalid.Error()), "auth.password_hashes.invalid_entries")
	}

	var generated []string
	if !p.Strict {
		for _, c := range creds {
			if _, ok := hashes[c.Username]; ok {
				continue
			}
			hash, herr := security.HashPassword(c.Password, p.BcryptCost)
			if herr != nil {
				return nil, fmt.Errorf("hashing default password for %s: %w", c.Username, herr)
			}
			hashes[c.Username] = hash
			generated = append(generated, c.Username)
		}
	}

	if len(generated) > 0 {
		if err := writeHashes(p.Path, hashes); err != nil {
			return nil, err
		}
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"generated":    len(generated),
			"file_existed": exists,
			"usernames":    generated,
		}), "auth.password_hashes.provisioned")
	}

	if p.AdminHash != "" {
		if err := security.ValidateHash(p.AdminHash); err != nil {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH: %w", err)
		}
		hashes[AdminUsername] = p.AdminHash
		logg.Info(ctx, "auth.admin_hash_overridden")
	}

	return hashes, nil
}

func readHashes(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	hashes := map[string]string{}
	if err := json.Unmarshal(b, &hashes); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return hashes, nil
}

func writeHashes(path string, hashes map[string]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	b, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
