package discover

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/securizon/sentinel/internal/engram"
)

// startScanSession opens an engram recording session for one scan run,
// pre-seeded with the profile decision that was already made for this
// subnet.
func startScanSession(tenantID uuid.UUID, target string, profile ScanProfile) *engram.Session {
	session := engram.NewSession(tenantID, "sentinel-discover", fmt.Sprintf("Network scan of %s", target))
	session.SetContext(map[string]any{
		"target":     target,
		"profile":    string(profile),
		"nmap_flags": profile.NmapFlags(),
	})
	session.AddDecision(fmt.Sprintf("Use %s scan profile", profile), "configured profile for this subnet", 1.0)
	return session
}

// recordScanResults records a completed scan's outcome in the session.
func recordScanResults(session *engram.Session, summary DiffSummary, durationMs int64) {
	session.AddAction(
		"network_scan",
		fmt.Sprintf("Scanned %d hosts: %d new, %d changed, %d stale",
			summary.TotalScanned, summary.NewCount, summary.ChangedCount, summary.StaleCount),
		map[string]any{
			"total_scanned": summary.TotalScanned,
			"new_count":     summary.NewCount,
			"changed_count": summary.ChangedCount,
			"stale_count":   summary.StaleCount,
			"duration_ms":   durationMs,
		},
		true,
	)
}

// recordScanError records a failed scan in the session.
func recordScanError(session *engram.Session, errMsg string) {
	session.AddAction("network_scan", fmt.Sprintf("Scan failed: %s", errMsg), map[string]any{"error": errMsg}, false)
}

// finalizeAndStore finalizes the session and persists it to engramDir.
// Persistence is best-effort: a failure is logged, never propagated, since
// losing a scan's audit record must not fail the scan itself.
func finalizeAndStore(session *engram.Session, engramDir string) *engram.Engram {
	sealed := session.Finalize()

	store, err := engram.NewFileStore(engramDir)
	if err != nil {
		log.Printf("discover: failed to initialize engram store: %v", err)
		return &sealed
	}

	if err := store.Save(sealed); err != nil {
		log.Printf("discover: failed to store engram: %v", err)
		return &sealed
	}

	log.Printf("discover: engram %s recorded for scan session", sealed.ID)
	return &sealed
}
