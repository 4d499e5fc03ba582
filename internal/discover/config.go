package discover

// ScanProfile is a named preset of nmap flags.
type ScanProfile string

const (
	// ScanProfileQuick is a ping sweep only: -sn
	ScanProfileQuick ScanProfile = "quick"
	// ScanProfileStandard is a SYN scan plus service version detection over
	// the top 1000 ports: -sS -sV --top-ports 1000. The default profile.
	ScanProfileStandard ScanProfile = "standard"
	// ScanProfileDeep is a full scan: -sS -sV -O -A -p-
	ScanProfileDeep ScanProfile = "deep"
)

// NmapFlags returns the nmap command-line flags for this profile, or the
// Standard profile's flags for an unrecognized value.
func (p ScanProfile) NmapFlags() []string {
	switch p {
	case ScanProfileQuick:
		return []string{"-sn"}
	case ScanProfileDeep:
		return []string{"-sS", "-sV", "-O", "-A", "-p-"}
	case ScanProfileStandard:
		return []string{"-sS", "-sV", "--top-ports", "1000"}
	default:
		return []string{"-sS", "-sV", "--top-ports", "1000"}
	}
}

// SubnetSchedule is a single subnet's scan configuration.
type SubnetSchedule struct {
	CIDR        string
	Name        string
	Profile     ScanProfile // empty means use Config.DefaultProfile
	IntervalSec int
	Enabled     bool
}

// Config is the top-level configuration for the network scanner.
type Config struct {
	NmapPath            string
	TenantID            string
	DefaultProfile      ScanProfile
	Subnets             []SubnetSchedule
	StaleThresholdHours int
	EngramDir           string
	MaxConcurrentScans  int
}

// DefaultConfig mirrors the original scanner's tuning: a standard profile,
// nmap resolved from PATH, a 24 hour staleness window, up to 4 concurrent
// scans, engrams written to ./engrams.
func DefaultConfig() Config {
	return Config{
		NmapPath:            "nmap",
		DefaultProfile:      ScanProfileStandard,
		StaleThresholdHours: 24,
		EngramDir:           "./engrams",
		MaxConcurrentScans:  4,
	}
}

// ProfileFor resolves the scan profile to use for a subnet: its own
// override if set, otherwise the config's default.
func (c Config) ProfileFor(subnet SubnetSchedule) ScanProfile {
	if subnet.Profile != "" {
		return subnet.Profile
	}
	return c.DefaultProfile
}
