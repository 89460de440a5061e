package version

const (
	Phase0 = iota
	Altair
)

var versionToString = map[int]string{
	Phase0: "phase0",
	Altair: "altair",
}

// String returns the fork name for a version number.
func String(version int) string {
	name, ok := versionToString[version]
	if !ok {
		return "unknown version"
	}
	return name
}

// All returns the known forks in activation order.
func All() []int {
	return []int{Phase0, Altair}
}
