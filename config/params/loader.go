package params

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// ErrPresetMismatch is returned when a config file names a preset the binary was not compiled for.
var ErrPresetMismatch = errors.New("config preset does not match compiled field lengths")

// LoadChainConfigFile loads a config yaml file on top of base, converting hex values into valid
// param yaml format first. The base is not modified. When base is nil, the preset named by the
// file (or mainnet) is used.
func LoadChainConfigFile(chainConfigFileName string, base *BeaconChainConfig) (*BeaconChainConfig, error) {
	yamlFile, err := os.ReadFile(chainConfigFileName) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "failed to read chain config file")
	}
	return UnmarshalConfig(yamlFile, base)
}

// UnmarshalConfig applies the yaml bytes on top of a copy of base.
func UnmarshalConfig(yamlFile []byte, base *BeaconChainConfig) (*BeaconChainConfig, error) {
	var conf *BeaconChainConfig
	if base != nil {
		conf = base.Copy()
	} else {
		conf = MainnetConfig()
	}
	// To track if config name is defined inside config file.
	hasConfigName := false
	// Convert 0x hex inputs to fixed bytes arrays
	lines := strings.Split(string(yamlFile), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "CONFIG_NAME") {
			hasConfigName = true
		}
		if base == nil && (strings.HasPrefix(line, "PRESET_BASE: 'minimal'") ||
			strings.HasPrefix(line, `PRESET_BASE: "minimal"`) ||
			strings.HasPrefix(line, "PRESET_BASE: minimal")) {
			conf = MinimalSpecConfig()
		}
		if !strings.HasPrefix(line, "#") && strings.Contains(line, "0x") {
			parts, err := ReplaceHexStringWithYAMLFormat(line)
			if err != nil {
				return nil, errors.Wrapf(err, "could not parse line %d", i+1)
			}
			lines[i] = strings.Join(parts, "\n")
		}
	}
	yamlFile = []byte(strings.Join(lines, "\n"))
	if err := yaml.UnmarshalStrict(yamlFile, conf); err != nil {
		return nil, errors.Wrap(err, "failed to parse chain config yaml file")
	}
	if !hasConfigName {
		conf.ConfigName = "devnet"
	}
	if conf.PresetBase != fieldparams.Preset {
		return nil, errors.Wrapf(ErrPresetMismatch, "config uses %q, binary built for %q", conf.PresetBase, fieldparams.Preset)
	}
	log.Debugf("Config file values: %+v", conf)
	return conf, nil
}

// ReplaceHexStringWithYAMLFormat will replace hex strings that the yaml parser will understand.
func ReplaceHexStringWithYAMLFormat(line string) ([]string, error) {
	parts := strings.Split(line, "0x")
	decoded, err := hex.DecodeString(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode hex string")
	}
	var fixed interface{}
	switch l := len(decoded); {
	case l == 1:
		fixed = decoded[0]
	case l > 1 && l <= 4:
		var arr [4]byte
		copy(arr[:], decoded)
		fixed = arr
	case l > 4 && l <= 8:
		var arr [8]byte
		copy(arr[:], decoded)
		fixed = arr
	case l > 8 && l <= 32:
		var arr [32]byte
		copy(arr[:], decoded)
		fixed = arr
	case l > 32 && l <= 48:
		var arr [48]byte
		copy(arr[:], decoded)
		fixed = arr
	case l > 48 && l <= 96:
		var arr [96]byte
		copy(arr[:], decoded)
		fixed = arr
	default:
		return nil, fmt.Errorf("unsupported hex length %d", l)
	}
	fixedByte, err := yaml.Marshal(fixed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config file")
	}
	if _, ok := fixed.(byte); ok {
		parts[0] += string(fixedByte)
		return parts[:1], nil
	}
	parts[1] = string(fixedByte)
	return parts, nil
}

// ConfigToYaml takes a provided config and outputs its contents
// in yaml. This allows custom configs to be read by other clients.
func ConfigToYaml(cfg *BeaconChainConfig) []byte {
	lines := []string{}
	lines = append(lines, fmt.Sprintf("PRESET_BASE: '%s'", cfg.PresetBase))
	lines = append(lines, fmt.Sprintf("CONFIG_NAME: '%s'", cfg.ConfigName))
	lines = append(lines, fmt.Sprintf("MIN_GENESIS_ACTIVE_VALIDATOR_COUNT: %d", cfg.MinGenesisActiveValidatorCount))
	lines = append(lines, fmt.Sprintf("GENESIS_DELAY: %d", cfg.GenesisDelay))
	lines = append(lines, fmt.Sprintf("MIN_GENESIS_TIME: %d", cfg.MinGenesisTime))
	lines = append(lines, fmt.Sprintf("GENESIS_FORK_VERSION: %#x", cfg.GenesisForkVersion))
	lines = append(lines, fmt.Sprintf("CHURN_LIMIT_QUOTIENT: %d", cfg.ChurnLimitQuotient))
	lines = append(lines, fmt.Sprintf("SECONDS_PER_SLOT: %d", cfg.SecondsPerSlot))
	lines = append(lines, fmt.Sprintf("SECONDS_PER_ETH1_BLOCK: %d", cfg.SecondsPerETH1Block))
	lines = append(lines, fmt.Sprintf("ETH1_FOLLOW_DISTANCE: %d", cfg.Eth1FollowDistance))
	lines = append(lines, fmt.Sprintf("SHARD_COMMITTEE_PERIOD: %d", cfg.ShardCommitteePeriod))
	lines = append(lines, fmt.Sprintf("MIN_VALIDATOR_WITHDRAWABILITY_DELAY: %d", cfg.MinValidatorWithdrawabilityDelay))
	lines = append(lines, fmt.Sprintf("EJECTION_BALANCE: %d", cfg.EjectionBalance))
	lines = append(lines, fmt.Sprintf("MIN_PER_EPOCH_CHURN_LIMIT: %d", cfg.MinPerEpochChurnLimit))
	lines = append(lines, fmt.Sprintf("ALTAIR_FORK_EPOCH: %d", cfg.AltairForkEpoch))
	lines = append(lines, fmt.Sprintf("ALTAIR_FORK_VERSION: %#x", cfg.AltairForkVersion))
	lines = append(lines, fmt.Sprintf("INACTIVITY_SCORE_BIAS: %d", cfg.InactivityScoreBias))
	lines = append(lines, fmt.Sprintf("INACTIVITY_SCORE_RECOVERY_RATE: %d", cfg.InactivityScoreRecoveryRate))

	yamlFile := []byte(strings.Join(lines, "\n"))
	return yamlFile
}
