package discover

import "testing"

const quickScanXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE nmaprun>
<nmaprun scanner="nmap" args="nmap -sn 10.0.1.0/24" startstr="Mon Feb 24 10:00:00 2026">
  <host>
    <status state="up" reason="arp-response"/>
    <address addr="10.0.1.1" addrtype="ipv4"/>
    <address addr="AA:BB:CC:DD:EE:01" addrtype="mac" vendor="TestVendor"/>
    <hostnames>
      <hostname name="gateway.local" type="PTR"/>
    </hostnames>
  </host>
  <host>
    <status state="up" reason="arp-response"/>
    <address addr="10.0.1.10" addrtype="ipv4"/>
    <address addr="AA:BB:CC:DD:EE:10" addrtype="mac"/>
  </host>
  <host>
    <status state="down" reason="no-response"/>
    <address addr="10.0.1.99" addrtype="ipv4"/>
  </host>
  <runstats>
    <finished time="1740400000" elapsed="2.50"/>
    <hosts up="2" down="1" total="3"/>
  </runstats>
</nmaprun>`

const standardScanXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE nmaprun>
<nmaprun scanner="nmap" args="nmap -sS -sV --top-ports 1000 10.0.1.1" startstr="Mon Feb 24 10:05:00 2026">
  <host>
    <status state="up" reason="syn-ack"/>
    <address addr="10.0.1.1" addrtype="ipv4"/>
    <hostnames>
      <hostname name="web-server.local" type="PTR"/>
    </hostnames>
    <ports>
      <port protocol="tcp" portid="22">
        <state state="open" reason="syn-ack"/>
        <service name="ssh" product="OpenSSH" version="9.6" extrainfo="Ubuntu Linux"/>
      </port>
      <port protocol="tcp" portid="80">
        <state state="open" reason="syn-ack"/>
        <service name="http" product="nginx" version="1.24.0"/>
      </port>
      <port protocol="tcp" portid="443">
        <state state="open" reason="syn-ack"/>
        <service name="https" product="nginx" version="1.24.0"/>
      </port>
      <port protocol="tcp" portid="3306">
        <state state="filtered" reason="no-response"/>
      </port>
    </ports>
    <os>
      <osmatch name="Linux 5.15" accuracy="95"/>
      <osmatch name="Linux 6.1" accuracy="90"/>
    </os>
  </host>
  <runstats>
    <finished time="1740400100" elapsed="15.30"/>
    <hosts up="1" down="0" total="1"/>
  </runstats>
</nmaprun>`

func TestParseNmapXML_QuickScan(t *testing.T) {
	result, err := ParseNmapXML([]byte(quickScanXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Hosts) != 3 {
		t.Fatalf("expected 3 hosts, got %d", len(result.Hosts))
	}

	upCount := 0
	for _, h := range result.Hosts {
		if h.IsUp() {
			upCount++
		}
	}
	if upCount != 2 {
		t.Errorf("expected 2 up hosts, got %d", upCount)
	}

	gateway := result.Hosts[0]
	if ip, _ := gateway.IPv4(); ip != "10.0.1.1" {
		t.Errorf("expected ipv4 10.0.1.1, got %q", ip)
	}
	if mac, _ := gateway.MAC(); mac != "AA:BB:CC:DD:EE:01" {
		t.Errorf("expected mac AA:BB:CC:DD:EE:01, got %q", mac)
	}
	if name, _ := gateway.Hostname(); name != "gateway.local" {
		t.Errorf("expected hostname gateway.local, got %q", name)
	}

	if result.RunStats == nil || result.RunStats.Hosts == nil {
		t.Fatal("expected runstats.hosts to be present")
	}
	if result.RunStats.Hosts.Up != "2" || result.RunStats.Hosts.Total != "3" {
		t.Errorf("unexpected runstats: %+v", result.RunStats.Hosts)
	}
}

func TestParseNmapXML_StandardScan(t *testing.T) {
	result, err := ParseNmapXML([]byte(standardScanXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(result.Hosts))
	}

	host := result.Hosts[0]
	if !host.IsUp() {
		t.Error("expected host to be up")
	}
	if ip, _ := host.IPv4(); ip != "10.0.1.1" {
		t.Errorf("expected ipv4 10.0.1.1, got %q", ip)
	}
	if name, _ := host.Hostname(); name != "web-server.local" {
		t.Errorf("expected hostname web-server.local, got %q", name)
	}
	if os, _ := host.OSName(); os != "Linux 5.15" {
		t.Errorf("expected os Linux 5.15, got %q", os)
	}

	if host.Ports == nil || len(host.Ports.Ports) != 4 {
		t.Fatalf("expected 4 ports, got %+v", host.Ports)
	}

	ssh := host.Ports.Ports[0]
	if ssh.PortID != 22 || ssh.Protocol != "tcp" || ssh.State.State != "open" {
		t.Errorf("unexpected ssh port: %+v", ssh)
	}
	if ssh.Service == nil || ssh.Service.Name != "ssh" || ssh.Service.Product != "OpenSSH" || ssh.Service.Version != "9.6" {
		t.Errorf("unexpected ssh service: %+v", ssh.Service)
	}

	filtered := host.Ports.Ports[3]
	if filtered.PortID != 3306 || filtered.State.State != "filtered" {
		t.Errorf("unexpected filtered port: %+v", filtered)
	}
	if filtered.Service != nil {
		t.Error("expected no service on filtered port")
	}
}

func TestParseNmapXML_EmptyScan(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE nmaprun>
<nmaprun scanner="nmap" args="nmap -sn 192.168.99.0/24">
  <runstats>
    <finished elapsed="1.00"/>
    <hosts up="0" down="256" total="256"/>
  </runstats>
</nmaprun>`

	result, err := ParseNmapXML([]byte(xml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Hosts) != 0 {
		t.Errorf("expected 0 hosts, got %d", len(result.Hosts))
	}
}

func TestNmapHost_WithoutHostname(t *testing.T) {
	host := NmapHost{
		Status:    &HostStatus{State: "up"},
		Addresses: []Address{{Addr: "10.0.1.5", AddrType: "ipv4"}},
	}

	if ip, _ := host.IPv4(); ip != "10.0.1.5" {
		t.Errorf("expected ipv4 10.0.1.5, got %q", ip)
	}
	if _, ok := host.Hostname(); ok {
		t.Error("expected no hostname")
	}
	if _, ok := host.MAC(); ok {
		t.Error("expected no mac")
	}
	if _, ok := host.OSName(); ok {
		t.Error("expected no os match")
	}
	if !host.IsUp() {
		t.Error("expected host to be up")
	}
}
