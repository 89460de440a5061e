package params

const (
	Mainnet ConfigName = iota
	Minimal
)

// ConfigNames provides network configuration names.
var ConfigNames = map[ConfigName]string{
	Mainnet: "mainnet",
	Minimal: "minimal",
}

// ConfigName enum describes the type of known network in use.
type ConfigName int

func (n ConfigName) String() string {
	s, ok := ConfigNames[n]
	if !ok {
		return "undefined"
	}
	return s
}

// ByName returns a fresh copy of the named preset configuration.
func ByName(name string) (*BeaconChainConfig, bool) {
	for n, s := range ConfigNames {
		if s != name {
			continue
		}
		switch n {
		case Mainnet:
			return MainnetConfig(), true
		case Minimal:
			return MinimalSpecConfig(), true
		}
	}
	return nil, false
}

type ForkName int

const (
	ForkGenesis ForkName = iota
	ForkAltair
)

func (n ForkName) String() string {
	switch n {
	case ForkGenesis:
		return "genesis"
	case ForkAltair:
		return "altair"
	}

	return "undefined"
}
