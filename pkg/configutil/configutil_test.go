package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string `json:"name"`
	Batch int    `json:"batch"`
}

func (c *testConfig) Validate() error {
	if c.Batch < 0 {
		return errors.New("batch must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "dir/config.local.json5", LocalPath("dir/config.json5"))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, path, `{
		// comments are allowed
		name: "crm",
		batch: 5,
	}`)
	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "crm", Batch: 5}, cfg)

	writeFile(t, LocalPath(path), `{batch: 8}`)
	cfg, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "crm", Batch: 8}, cfg)

	writeFile(t, LocalPath(path), `{batch: -1}`)
	_, err = ReadConfig[testConfig](path)
	require.Error(t, err)
}
