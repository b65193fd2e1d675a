package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sofibox/sofilab/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestFindExplicitKeyfile(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "ssh", "custom_key")
	touch(t, keyPath, "PRIVATE")
	touch(t, keyPath+".pub", "ssh-ed25519 AAAA test@lab\n")

	info := Find(&config.Profile{Keyfile: keyPath, ConfigDir: dir})
	require.NotNil(t, info)
	assert.Equal(t, keyPath, info.PrivatePath)
	assert.True(t, info.HasPublic)
	assert.Equal(t, "ssh-ed25519 AAAA test@lab", info.PublicKey())
}

func TestFindStripsPubSuffix(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "ssh", "pmx_key")
	touch(t, keyPath, "PRIVATE")
	touch(t, keyPath+".pub", "PUBLIC")

	info := Find(&config.Profile{Keyfile: keyPath + ".pub", ConfigDir: dir})
	require.NotNil(t, info)
	assert.Equal(t, keyPath, info.PrivatePath)
}

func TestFindAutoDiscoversAliasKey(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "ssh", "pve_key"), "PRIVATE")

	info := Find(&config.Profile{
		Aliases:   []string{"pmx", "pve"},
		ConfigDir: dir,
	})
	require.NotNil(t, info)
	assert.Equal(t, filepath.Join(dir, "ssh", "pve_key"), info.PrivatePath)
	assert.False(t, info.HasPublic)
}

func TestFindNone(t *testing.T) {
	info := Find(&config.Profile{
		Aliases:   []string{"pmx"},
		Keyfile:   filepath.Join(t.TempDir(), "absent"),
		ConfigDir: t.TempDir(),
	})
	assert.Nil(t, info)
}

func TestPublicKeyMissing(t *testing.T) {
	var info *Info
	assert.Equal(t, "", info.PublicKey())

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "k")
	touch(t, keyPath, "PRIVATE")
	got := fromPrivatePath(keyPath)
	assert.Equal(t, "", got.PublicKey())
}
