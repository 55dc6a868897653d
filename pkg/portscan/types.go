package portscan

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	errorutil "github.com/zan8in/portprobe/pkg/errors"
)

// PortState represents the state of a port
type PortState int

const (
	PortStateOpen PortState = iota
	PortStateClosed
	PortStateFiltered
)

func (s PortState) String() string {
	switch s {
	case PortStateOpen:
		return "open"
	case PortStateClosed:
		return "closed"
	case PortStateFiltered:
		return "filtered"
	default:
		return "unknown"
	}
}

func (s PortState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PortState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "open":
		*s = PortStateOpen
	case "closed":
		*s = PortStateClosed
	case "filtered":
		*s = PortStateFiltered
	default:
		return errors.Errorf("unknown port state %q", text)
	}
	return nil
}

// ScanTarget describes one scan invocation. Build it with NewScanTarget.
type ScanTarget struct {
	Host        string
	IP          string
	Ports       []int
	Timeout     time.Duration
	Concurrency int
}

// NewScanTarget validates the inputs and returns a target with duplicate
// ports removed. ip must already be resolved.
func NewScanTarget(host, ip string, ports []int, timeout time.Duration, concurrency int) (*ScanTarget, error) {
	if host == "" || ip == "" {
		return nil, errorutil.ErrEmptyHost
	}
	if timeout <= 0 {
		return nil, errors.Errorf("timeout must be positive, got %s", timeout)
	}
	if concurrency <= 0 {
		return nil, errors.Errorf("concurrency must be positive, got %d", concurrency)
	}

	seen := make(map[int]struct{}, len(ports))
	list := make([]int, 0, len(ports))
	for _, p := range ports {
		if !isValidPort(p) {
			return nil, errors.Errorf("port %d out of range", p)
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		list = append(list, p)
	}
	if len(list) == 0 {
		return nil, errorutil.ErrNoPorts
	}

	return &ScanTarget{
		Host:        host,
		IP:          ip,
		Ports:       list,
		Timeout:     timeout,
		Concurrency: concurrency,
	}, nil
}

// ProbeResult holds the result of a single port probe.
// Service and Banner are only ever set on open ports.
type ProbeResult struct {
	Port    int       `json:"port"`
	Open    bool      `json:"is_open"`
	State   PortState `json:"state"`
	Service string    `json:"service,omitempty"`
	Banner  string    `json:"banner,omitempty"`
}

func closedResult(port int, state PortState) ProbeResult {
	return ProbeResult{Port: port, State: state}
}

// ScanReport is the terminal output of Scanner.Scan.
type ScanReport struct {
	ID        string        `json:"id"`
	Host      string        `json:"host"`
	IP        string        `json:"ip"`
	Results   []ProbeResult `json:"results"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
	Anomalies int           `json:"anomalies"`
}

// OpenResults returns the open ports sorted by port number.
func (r *ScanReport) OpenResults() []ProbeResult {
	open := make([]ProbeResult, 0)
	for _, res := range r.Results {
		if res.Open {
			open = append(open, res)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Port < open[j].Port })
	return open
}

// ProgressFunc observes each completed probe. completed counts from 1 to total.
type ProgressFunc func(result ProbeResult, completed, total int)
