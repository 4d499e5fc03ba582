package discover

import (
	"bytes"
	"context"
	"log"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/securizon/sentinel/internal/sentinelerrors"
)

// ScanResult is the outcome of a single nmap scan execution.
type ScanResult struct {
	ScanID   uuid.UUID
	Target   string
	Profile  ScanProfile
	NmapRun  *NmapRun
	Duration time.Duration
}

// NmapScanner wraps the nmap binary.
type NmapScanner struct {
	nmapPath string
}

// NewNmapScanner wraps the nmap binary found at path.
func NewNmapScanner(path string) *NmapScanner {
	return &NmapScanner{nmapPath: path}
}

// VerifyInstallation confirms nmap is reachable and returns its version
// banner.
func (s *NmapScanner) VerifyInstallation(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, s.nmapPath, "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", &sentinelerrors.NmapNotFound{Path: s.nmapPath}
	}
	return string(out), nil
}

// Scan runs nmap against target with the given profile's flags, asking for
// XML output on stdout, and parses the result.
func (s *NmapScanner) Scan(ctx context.Context, target string, profile ScanProfile) (*ScanResult, error) {
	scanID := uuid.New()
	start := time.Now()

	args := append(append([]string(nil), profile.NmapFlags()...), "-oX", "-", "--noninteractive", target)
	cmd := exec.CommandContext(ctx, s.nmapPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("discover: starting nmap scan %s target=%s profile=%s", scanID, target, profile)

	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, &sentinelerrors.NmapNotFound{Path: s.nmapPath}
		}
		return nil, &sentinelerrors.NmapFailed{Code: exitErr.ExitCode(), Stderr: stderr.String()}
	}

	duration := time.Since(start)

	nmapRun, err := ParseNmapXML(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	hostsUp := 0
	for _, h := range nmapRun.Hosts {
		if h.IsUp() {
			hostsUp++
		}
	}
	log.Printf("discover: nmap scan %s complete target=%s hosts_up=%d duration=%s", scanID, target, hostsUp, duration)

	return &ScanResult{
		ScanID:   scanID,
		Target:   target,
		Profile:  profile,
		NmapRun:  nmapRun,
		Duration: duration,
	}, nil
}
