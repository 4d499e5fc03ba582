package discover

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/securizon/sentinel/internal/graphstore"
	"github.com/securizon/sentinel/internal/graphtypes"
)

// DiscoveredHost is a single host with the ports, services, and edges nmap
// found for it, converted into graph domain types and ready to upsert.
type DiscoveredHost struct {
	Host     graphtypes.Host
	Ports    []graphtypes.Port
	Services []graphtypes.Service
	Edges    []graphtypes.Edge
}

// DiffSummary counts the outcome of one scan cycle.
type DiffSummary struct {
	TotalScanned uint32
	NewCount     uint32
	ChangedCount uint32
	StaleCount   uint32
}

// DiffResult is the outcome of comparing a scan's discovered hosts against
// the graph's current state.
type DiffResult struct {
	NewHosts     []DiscoveredHost
	ChangedHosts []DiscoveredHost
	StaleIPs     []string
	Summary      DiffSummary
}

// ParseScanResults converts the up hosts in an nmap run into graph domain
// types, deriving deterministic ids from the tenant and each host/port/
// service's natural key so rescans upsert instead of duplicating.
func ParseScanResults(run *NmapRun, tenantID graphtypes.TenantId, scanTime time.Time) []DiscoveredHost {
	var out []DiscoveredHost
	for _, h := range run.Hosts {
		if !h.IsUp() {
			continue
		}
		if dh, ok := convertNmapHost(h, tenantID, scanTime); ok {
			out = append(out, dh)
		}
	}
	return out
}

func convertNmapHost(nh NmapHost, tenantID graphtypes.TenantId, now time.Time) (DiscoveredHost, bool) {
	ip, ok := nh.IPv4()
	if !ok {
		return DiscoveredHost{}, false
	}

	hostID := graphtypes.DeriveNodeId(tenantID, "host", ip)

	var hostname, os, mac *string
	if v, ok := nh.Hostname(); ok {
		hostname = &v
	}
	if v, ok := nh.OSName(); ok {
		os = &v
	}
	if v, ok := nh.MAC(); ok {
		mac = &v
	}
	onPrem := graphtypes.CloudOnPrem

	host := graphtypes.Host{
		NodeBase:      graphtypes.NodeBase{Id: hostID, TenantID: tenantID, FirstSeen: now, LastSeen: now},
		IP:            ip,
		Hostname:      hostname,
		OS:            os,
		MACAddress:    mac,
		CloudProvider: &onPrem,
		Criticality:   graphtypes.CriticalityMedium,
	}

	var ports []graphtypes.Port
	var services []graphtypes.Service
	var edges []graphtypes.Edge

	if nh.Ports != nil {
		for _, np := range nh.Ports.Ports {
			portID := graphtypes.DeriveNodeId(tenantID, "port", ip, strconv.Itoa(int(np.PortID)), np.Protocol)
			protocol := parseProtocol(np.Protocol)

			ports = append(ports, graphtypes.Port{
				NodeBase: graphtypes.NodeBase{Id: portID, TenantID: tenantID, FirstSeen: now, LastSeen: now},
				Number:   np.PortID,
				Protocol: protocol,
				State:    parsePortState(np.State.State),
			})

			edges = append(edges, graphtypes.Edge{
				Id:        graphtypes.DeriveEdgeId(tenantID, "has_port", ip, strconv.Itoa(int(np.PortID))),
				TenantID:  tenantID,
				SourceID:  hostID,
				TargetID:  portID,
				EdgeType:  graphtypes.EdgeHasPort,
				FirstSeen: now,
				LastSeen:  now,
			})

			if np.Service != nil {
				svcID := graphtypes.DeriveNodeId(tenantID, "service", ip, strconv.Itoa(int(np.PortID)), np.Service.Name)
				version := serviceVersion(np.Service.Product, np.Service.Version)

				var banner *string
				if np.Service.ExtraInfo != "" {
					banner = &np.Service.ExtraInfo
				}

				services = append(services, graphtypes.Service{
					NodeBase: graphtypes.NodeBase{Id: svcID, TenantID: tenantID, FirstSeen: now, LastSeen: now},
					Name:     np.Service.Name,
					Version:  version,
					Port:     np.PortID,
					Protocol: protocol,
					State:    graphtypes.ServiceRunning,
					Banner:   banner,
				})

				port := np.PortID
				edges = append(edges, graphtypes.Edge{
					Id:       graphtypes.DeriveEdgeId(tenantID, "exposes", ip, strconv.Itoa(int(np.PortID))),
					TenantID: tenantID,
					SourceID: hostID,
					TargetID: svcID,
					EdgeType: graphtypes.EdgeExposes,
					Properties: graphtypes.EdgeProperties{
						Port:     &port,
						Protocol: &protocol,
					},
					FirstSeen: now,
					LastSeen:  now,
				})
			}
		}
	}

	return DiscoveredHost{Host: host, Ports: ports, Services: services, Edges: edges}, true
}

func serviceVersion(product, version string) *string {
	switch {
	case product != "" && version != "":
		v := product + " " + version
		return &v
	case product != "":
		return &product
	case version != "":
		return &version
	default:
		return nil
	}
}

func parseProtocol(proto string) graphtypes.Protocol {
	switch strings.ToLower(proto) {
	case "tcp":
		return graphtypes.ProtocolTCP
	case "udp":
		return graphtypes.ProtocolUDP
	default:
		return graphtypes.Protocol(strings.ToLower(proto))
	}
}

func parsePortState(state string) graphtypes.PortState {
	switch strings.ToLower(state) {
	case "open":
		return graphtypes.PortOpen
	case "closed":
		return graphtypes.PortClosed
	default:
		return graphtypes.PortFiltered
	}
}

// ComputeDiff compares discovered hosts against what the graph already has
// for this tenant, classifying each as new or changed, and separately
// finds hosts inside scanTargetCIDR that the graph has but this scan
// didn't see (candidates for staleness).
func ComputeDiff(ctx context.Context, client *graphstore.Client, tenantID graphtypes.TenantId, discovered []DiscoveredHost, scanTargetCIDR string) (*DiffResult, error) {
	var newHosts, changedHosts []DiscoveredHost
	seenIPs := make(map[string]bool, len(discovered))

	for _, dh := range discovered {
		seenIPs[dh.Host.IP] = true

		existing, err := client.FindNodeByProperty(ctx, tenantID, graphtypes.NodeKindHost, "ip", dh.Host.IP)
		if err != nil {
			return nil, err
		}

		if existing == nil {
			newHosts = append(newHosts, dh)
			continue
		}
		// Changed or unchanged, still upserted to refresh last_seen.
		changedHosts = append(changedHosts, dh)
	}

	staleIPs, err := findStaleIPs(ctx, client, tenantID, scanTargetCIDR, seenIPs)
	if err != nil {
		return nil, err
	}

	summary := DiffSummary{
		TotalScanned: uint32(len(seenIPs)),
		NewCount:     uint32(len(newHosts)),
		ChangedCount: uint32(len(changedHosts)),
		StaleCount:   uint32(len(staleIPs)),
	}

	return &DiffResult{NewHosts: newHosts, ChangedHosts: changedHosts, StaleIPs: staleIPs, Summary: summary}, nil
}

func findStaleIPs(ctx context.Context, client *graphstore.Client, tenantID graphtypes.TenantId, cidrStr string, seenIPs map[string]bool) ([]string, error) {
	allHosts, err := client.ListNodes(ctx, tenantID, graphtypes.NodeKindHost, 10_000, 0)
	if err != nil {
		return nil, err
	}

	_, cidr, cidrErr := net.ParseCIDR(cidrStr)

	var stale []string
	for _, record := range allHosts {
		ipVal, ok := record.Properties["ip"].(string)
		if !ok {
			continue
		}
		if seenIPs[ipVal] {
			continue
		}
		if cidrErr == nil {
			if ip := net.ParseIP(ipVal); ip != nil && !cidr.Contains(ip) {
				continue
			}
		}
		stale = append(stale, ipVal)
	}
	return stale, nil
}
