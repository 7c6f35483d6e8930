package auth

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mipastel/pedidos-backend/pkg/enums"
	"github.com/mipastel/pedidos-backend/pkg/security"
)

func testCreds() []Credential {
	return []Credential{
		{Username: "jerez", Password: "jerpass", Branch: enums.BranchJerez, Role: enums.RoleOperator},
		{Username: AdminUsername, Password: "admin123", Role: enums.RoleAdmin},
	}
}

func TestLoadHashesGeneratesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", ".password_hashes.json")

	hashes, err := LoadHashes(context.Background(), testCreds(), ProvisionParams{Path: path})
	require.NoError(t, err)
	require.Len(t, hashes, 2)

	ok, err := security.VerifyPassword("jerpass", hashes["jerez"])
	require.NoError(t, err)
	assert.True(t, ok)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	var onDisk map[string]string
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &onDisk))
	assert.Equal(t, hashes, onDisk)

	// A second load reuses the file untouched.
	again, err := LoadHashes(context.Background(), testCreds(), ProvisionParams{Path: path})
	require.NoError(t, err)
	assert.Equal(t, hashes, again)
}

func TestLoadHashesStrictRequiresFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	_, err := LoadHashes(context.Background(), testCreds(), ProvisionParams{Path: path, Strict: true})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "strict mode never writes")
}

func TestLoadHashesInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"jerez":"plaintext","admin":"also-bad"}`), 0o600))

	_, err := LoadHashes(context.Background(), testCreds(), ProvisionParams{Path: path, Strict: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jerez")
	assert.Contains(t, err.Error(), "admin")

	hashes, err := LoadHashes(context.Background(), testCreds(), ProvisionParams{Path: path})
	require.NoError(t, err)
	require.NoError(t, security.ValidateHash(hashes["jerez"]), "bad entries are regenerated")
}

func TestLoadHashesAdminOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")
	override, err := security.HashPassword("otra-clave", 0)
	require.NoError(t, err)

	hashes, err := LoadHashes(context.Background(), testCreds(), ProvisionParams{Path: path, AdminHash: override})
	require.NoError(t, err)
	assert.Equal(t, override, hashes[AdminUsername])

	_, err = LoadHashes(context.Background(), testCreds(), ProvisionParams{Path: path, AdminHash: "$2a$04$short"})
	assert.Error(t, err)
}

func TestLoadHashesRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := LoadHashes(context.Background(), testCreds(), ProvisionParams{Path: path})
	assert.Error(t, err)
}

func TestDirectorySkipsAccountsWithoutHash(t *testing.T) {
	dir := NewDirectory(DefaultCredentials(), map[string]string{"admin": "h", "jerez": "h2"})
	assert.Equal(t, []string{"admin", "jerez"}, dir.Usernames())

	u, ok := dir.Lookup(" jerez ")
	require.True(t, ok)
	assert.Equal(t, "Sucursal Jeréz", u.DisplayName)
	_, ok = dir.Lookup("jutiapa1")
	assert.False(t, ok)
	assert.Len(t, DefaultCredentials(), 13)
}
