package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-subxt/internal/clients/metadata/metadatatest"
	"go-subxt/utils"
)

func TestParseArg(t *testing.T) {
	assert.Equal(t, uint64(1000), parseArg("1000"))
	assert.Equal(t, int64(-3), parseArg("-3"))
	assert.Equal(t, "340282366920938463463374607431768211455", parseArg("340282366920938463463374607431768211455"))
	assert.Equal(t, "0xd43593c7", parseArg(`"0xd43593c7"`))
	assert.Equal(t, "0xd43593c7", parseArg("0xd43593c7"))
	assert.Equal(t, []interface{}{uint64(1), "a"}, parseArg(`[1, "a"]`))
	assert.Equal(t, "1 2", parseArg("1 2"))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"log_config": {"level": "error"}}`), 0o600))

	rc := NewRootCommand()
	var out bytes.Buffer
	rc.baseCmd.SetOut(&out)
	rc.baseCmd.SetErr(&out)
	rc.baseCmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := rc.baseCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMetadataFromFile(t *testing.T) {
	path, err := utils.WriteMetadataFile(t.TempDir(), 30, metadatatest.V12())
	require.NoError(t, err)

	out, err := run(t, "metadata", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Metadata v12")
	assert.Contains(t, out, "Balances [2]")
	assert.Contains(t, out, "transfer_keep_alive")
	assert.Contains(t, out, "CheckNonce")
}

func TestMetadataFileMissing(t *testing.T) {
	_, err := run(t, "metadata", "--file", filepath.Join(t.TempDir(), "nope.meta"))
	assert.Error(t, err)
}

func TestSubmitNeedsSeed(t *testing.T) {
	t.Setenv("SUBXT_SIGNER_SEED", "")
	_, err := run(t, "submit", "Balances", "transfer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed")
}

func TestStorageArgCount(t *testing.T) {
	_, err := run(t, "storage", "System")
	assert.Error(t, err)
}
