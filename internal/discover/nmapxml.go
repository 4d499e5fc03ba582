package discover

import (
	"encoding/xml"

	"github.com/securizon/sentinel/internal/sentinelerrors"
)

// NmapRun is the root <nmaprun> element of nmap's -oX output.
type NmapRun struct {
	XMLName  xml.Name   `xml:"nmaprun"`
	Scanner  string     `xml:"scanner,attr"`
	Args     string     `xml:"args,attr"`
	StartStr string     `xml:"startstr,attr"`
	Hosts    []NmapHost `xml:"host"`
	RunStats *RunStats  `xml:"runstats"`
}

// NmapHost is a single <host> element.
type NmapHost struct {
	Status    *HostStatus `xml:"status"`
	Addresses []Address   `xml:"address"`
	Hostnames *Hostnames  `xml:"hostnames"`
	Ports     *Ports      `xml:"ports"`
	OS        *OsMatches  `xml:"os"`
}

type HostStatus struct {
	State  string `xml:"state,attr"`
	Reason string `xml:"reason,attr"`
}

type Address struct {
	Addr     string `xml:"addr,attr"`
	AddrType string `xml:"addrtype,attr"`
	Vendor   string `xml:"vendor,attr"`
}

type Hostnames struct {
	Hostnames []Hostname `xml:"hostname"`
}

type Hostname struct {
	Name         string `xml:"name,attr"`
	HostnameType string `xml:"type,attr"`
}

type Ports struct {
	Ports []NmapPort `xml:"port"`
}

type NmapPort struct {
	Protocol string       `xml:"protocol,attr"`
	PortID   uint16       `xml:"portid,attr"`
	State    PortState    `xml:"state"`
	Service  *NmapService `xml:"service"`
}

type PortState struct {
	State  string `xml:"state,attr"`
	Reason string `xml:"reason,attr"`
}

type NmapService struct {
	Name      string `xml:"name,attr"`
	Product   string `xml:"product,attr"`
	Version   string `xml:"version,attr"`
	ExtraInfo string `xml:"extrainfo,attr"`
}

type OsMatches struct {
	Matches []OsMatch `xml:"osmatch"`
}

type OsMatch struct {
	Name     string `xml:"name,attr"`
	Accuracy string `xml:"accuracy,attr"`
}

type RunStats struct {
	Finished *Finished      `xml:"finished"`
	Hosts    *RunStatsHosts `xml:"hosts"`
}

type Finished struct {
	Time    string `xml:"time,attr"`
	Elapsed string `xml:"elapsed,attr"`
}

type RunStatsHosts struct {
	Up    string `xml:"up,attr"`
	Down  string `xml:"down,attr"`
	Total string `xml:"total,attr"`
}

// IPv4 returns the host's IPv4 address, if present.
func (h NmapHost) IPv4() (string, bool) {
	for _, a := range h.Addresses {
		if a.AddrType == "ipv4" {
			return a.Addr, true
		}
	}
	return "", false
}

// MAC returns the host's MAC address, if present.
func (h NmapHost) MAC() (string, bool) {
	for _, a := range h.Addresses {
		if a.AddrType == "mac" {
			return a.Addr, true
		}
	}
	return "", false
}

// Hostname returns the host's first resolved hostname, if any.
func (h NmapHost) Hostname() (string, bool) {
	if h.Hostnames == nil || len(h.Hostnames.Hostnames) == 0 {
		return "", false
	}
	return h.Hostnames.Hostnames[0].Name, true
}

// IsUp reports whether nmap found the host up.
func (h NmapHost) IsUp() bool {
	return h.Status != nil && h.Status.State == "up"
}

// OSName returns the best (highest-accuracy, first-listed) OS match name.
func (h NmapHost) OSName() (string, bool) {
	if h.OS == nil || len(h.OS.Matches) == 0 {
		return "", false
	}
	return h.OS.Matches[0].Name, true
}

// ParseNmapXML parses nmap's -oX output into a structured NmapRun.
func ParseNmapXML(data []byte) (*NmapRun, error) {
	var run NmapRun
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, &sentinelerrors.XmlParse{Cause: err}
	}
	return &run, nil
}
