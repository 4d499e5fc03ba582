package discover

import (
	"testing"
	"time"

	"github.com/securizon/sentinel/internal/graphtypes"
)

func TestParseScanResults_Basic(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE nmaprun>
<nmaprun scanner="nmap">
  <host>
    <status state="up" reason="syn-ack"/>
    <address addr="10.0.1.1" addrtype="ipv4"/>
    <hostnames><hostname name="web.local" type="PTR"/></hostnames>
    <ports>
      <port protocol="tcp" portid="80">
        <state state="open" reason="syn-ack"/>
        <service name="http" product="nginx" version="1.24"/>
      </port>
    </ports>
  </host>
  <host>
    <status state="down" reason="no-response"/>
    <address addr="10.0.1.2" addrtype="ipv4"/>
  </host>
</nmaprun>`

	run, err := ParseNmapXML([]byte(xml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tenantID := graphtypes.NewTenantId()
	now := time.Now().UTC()
	results := ParseScanResults(run, tenantID, now)

	if len(results) != 1 {
		t.Fatalf("expected 1 discovered host (down host excluded), got %d", len(results))
	}

	host := results[0]
	if host.Host.IP != "10.0.1.1" {
		t.Errorf("expected ip 10.0.1.1, got %q", host.Host.IP)
	}
	if host.Host.Hostname == nil || *host.Host.Hostname != "web.local" {
		t.Errorf("expected hostname web.local, got %v", host.Host.Hostname)
	}
	if len(host.Ports) != 1 || host.Ports[0].Number != 80 {
		t.Fatalf("expected 1 port 80, got %+v", host.Ports)
	}
	if len(host.Services) != 1 || host.Services[0].Name != "http" {
		t.Fatalf("expected 1 http service, got %+v", host.Services)
	}
	if len(host.Edges) != 2 {
		t.Errorf("expected 2 edges (HAS_PORT + EXPOSES), got %d", len(host.Edges))
	}
}

func TestParseScanResults_DeterministicIDs(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE nmaprun>
<nmaprun scanner="nmap">
  <host>
    <status state="up"/>
    <address addr="10.0.1.1" addrtype="ipv4"/>
  </host>
</nmaprun>`

	run, err := ParseNmapXML([]byte(xml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tenantID := graphtypes.NewTenantId()
	now := time.Now().UTC()

	r1 := ParseScanResults(run, tenantID, now)
	r2 := ParseScanResults(run, tenantID, now)

	if r1[0].Host.Id != r2[0].Host.Id {
		t.Errorf("expected deterministic host id across parses, got %v != %v", r1[0].Host.Id, r2[0].Host.Id)
	}
}

func TestParseProtocol(t *testing.T) {
	if parseProtocol("tcp") != graphtypes.ProtocolTCP {
		t.Error("expected tcp")
	}
	if parseProtocol("UDP") != graphtypes.ProtocolUDP {
		t.Error("expected udp")
	}
	if parseProtocol("sctp") != graphtypes.Protocol("sctp") {
		t.Errorf("expected passthrough sctp, got %q", parseProtocol("sctp"))
	}
}

func TestParsePortState(t *testing.T) {
	if parsePortState("open") != graphtypes.PortOpen {
		t.Error("expected open")
	}
	if parsePortState("closed") != graphtypes.PortClosed {
		t.Error("expected closed")
	}
	if parsePortState("open|filtered") != graphtypes.PortFiltered {
		t.Error("expected filtered for open|filtered")
	}
}
