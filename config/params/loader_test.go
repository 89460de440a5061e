package params

import (
	"os"
	"path/filepath"
	"testing"

	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestConfigToYaml_RoundTrip(t *testing.T) {
	base, ok := ByName(fieldparams.Preset)
	require.Equal(t, true, ok)
	base.ChurnLimitQuotient = 1234
	base.AltairForkVersion = []byte{9, 8, 7, 6}

	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, ConfigToYaml(base), 0600))

	loaded, err := LoadChainConfigFile(p, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), loaded.ChurnLimitQuotient)
	assert.DeepEqual(t, []byte{9, 8, 7, 6}, loaded.AltairForkVersion)
	assert.Equal(t, base.SlotsPerEpoch, loaded.SlotsPerEpoch)
}

func TestLoadChainConfigFile_DoesNotMutateBase(t *testing.T) {
	base, ok := ByName(fieldparams.Preset)
	require.Equal(t, true, ok)
	conf, err := UnmarshalConfig([]byte("CONFIG_NAME: 'custom'\nEJECTION_BALANCE: 17000000000"), base)
	require.NoError(t, err)
	assert.Equal(t, uint64(17e9), conf.EjectionBalance)
	assert.Equal(t, "custom", conf.ConfigName)
	assert.Equal(t, uint64(16e9), base.EjectionBalance)
}

func TestLoadChainConfigFile_UnknownField(t *testing.T) {
	base, _ := ByName(fieldparams.Preset)
	_, err := UnmarshalConfig([]byte("NOT_A_FIELD: 3"), base)
	require.ErrorContains(t, "failed to parse chain config yaml file", err)
}

func TestLoadChainConfigFile_PresetMismatch(t *testing.T) {
	other := "minimal"
	if fieldparams.Preset == "minimal" {
		other = "mainnet"
	}
	base, _ := ByName(fieldparams.Preset)
	_, err := UnmarshalConfig([]byte("PRESET_BASE: '"+other+"'"), base)
	require.ErrorIs(t, err, ErrPresetMismatch)
}

func TestReplaceHexStringWithYAMLFormat(t *testing.T) {
	parts, err := ReplaceHexStringWithYAMLFormat("GENESIS_FORK_VERSION: 0x01000000")
	require.NoError(t, err)
	assert.Equal(t, 2, len(parts))

	_, err = ReplaceHexStringWithYAMLFormat("GENESIS_FORK_VERSION: 0xzz")
	require.ErrorContains(t, "failed to decode hex string", err)
}

func TestCopy_Independent(t *testing.T) {
	a := MainnetConfig()
	b := a.Copy()
	b.GenesisForkVersion[0] = 0xff
	b.SlotsPerEpoch = 1
	assert.Equal(t, byte(0), a.GenesisForkVersion[0])
	assert.NotEqual(t, a.SlotsPerEpoch, b.SlotsPerEpoch)
}

func TestMinimalSpecConfig_Values(t *testing.T) {
	c := MinimalSpecConfig()
	assert.Equal(t, "minimal", c.PresetBase)
	assert.Equal(t, uint64(8), uint64(c.SlotsPerEpoch))
	assert.Equal(t, uint64(32), c.SyncCommitteeSize)
	m := MainnetConfig()
	assert.Equal(t, uint64(32), uint64(m.SlotsPerEpoch))
	assert.Equal(t, [4]byte{0x01, 0, 0, 0}, m.DomainBeaconAttester)
}
