package discover

import "testing"

func TestScanProfile_NmapFlags(t *testing.T) {
	cases := []struct {
		profile  ScanProfile
		expected []string
	}{
		{ScanProfileQuick, []string{"-sn"}},
		{ScanProfileStandard, []string{"-sS", "-sV", "--top-ports", "1000"}},
		{ScanProfileDeep, []string{"-sS", "-sV", "-O", "-A", "-p-"}},
	}

	for _, c := range cases {
		flags := c.profile.NmapFlags()
		if len(flags) != len(c.expected) {
			t.Fatalf("%s: expected %v, got %v", c.profile, c.expected, flags)
		}
		for i := range flags {
			if flags[i] != c.expected[i] {
				t.Errorf("%s: expected %v, got %v", c.profile, c.expected, flags)
			}
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.NmapPath != "nmap" {
		t.Errorf("expected nmap path 'nmap', got %q", config.NmapPath)
	}
	if config.DefaultProfile != ScanProfileStandard {
		t.Errorf("expected standard profile, got %q", config.DefaultProfile)
	}
	if config.StaleThresholdHours != 24 {
		t.Errorf("expected 24 hour stale threshold, got %d", config.StaleThresholdHours)
	}
	if config.MaxConcurrentScans != 4 {
		t.Errorf("expected max 4 concurrent scans, got %d", config.MaxConcurrentScans)
	}
}

func TestConfig_ProfileFor(t *testing.T) {
	config := DefaultConfig()
	overridden := SubnetSchedule{CIDR: "10.0.1.0/24", Profile: ScanProfileDeep}
	if got := config.ProfileFor(overridden); got != ScanProfileDeep {
		t.Errorf("expected overridden profile Deep, got %q", got)
	}

	defaulted := SubnetSchedule{CIDR: "10.0.2.0/24"}
	if got := config.ProfileFor(defaulted); got != ScanProfileStandard {
		t.Errorf("expected default profile Standard, got %q", got)
	}
}
