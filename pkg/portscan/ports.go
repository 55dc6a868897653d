package portscan

import (
	"sort"
	"strconv"
	"strings"

	errorutil "github.com/zan8in/portprobe/pkg/errors"
)

// ParsePorts parses a port definition into a sorted, deduplicated list.
// Supported formats: "80", "80,443", "100-200", "200-100", "top-100".
// Malformed tokens are skipped and reported in warnings; parsing continues
// with the remaining tokens.
func ParsePorts(portStr string) ([]int, []error) {
	var warnings []error
	seen := make(map[int]struct{})

	for _, part := range strings.Split(portStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.EqualFold(part, "top-100") {
			for _, p := range getTop100Ports() {
				seen[p] = struct{}{}
			}
			continue
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				warnings = append(warnings, errorutil.NewPortTokenError(part, "invalid range format"))
				continue
			}
			start, err1 := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			end, err2 := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err1 != nil || err2 != nil {
				warnings = append(warnings, errorutil.NewPortTokenError(part, "invalid range format"))
				continue
			}
			if start > end {
				start, end = end, start
			}
			if !isValidPort(start) || !isValidPort(end) {
				warnings = append(warnings, errorutil.NewPortTokenError(part, "ports must be in 1-65535"))
				continue
			}
			for i := start; i <= end; i++ {
				seen[i] = struct{}{}
			}
			continue
		}

		port, err := strconv.Atoi(part)
		if err != nil {
			warnings = append(warnings, errorutil.NewPortTokenError(part, "invalid port number"))
			continue
		}
		if !isValidPort(port) {
			warnings = append(warnings, errorutil.NewPortTokenError(part, "ports must be in 1-65535"))
			continue
		}
		seen[port] = struct{}{}
	}

	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Ints(ports)

	return ports, warnings
}

func getTop100Ports() []int {
	return []int{
		80, 443, 8080, 8443, 22, 21, 23, 25, 53, 110, 143, 389, 445, 3389, 135, 139, 8000, 8081, 9090,
		3306, 5432, 6379, 27017, 1433, 1521, 2181, 9200, 11211, 5672, 5900, 5000, 8888, 2222, 2375,
		8008, 8009, 8090, 8161, 8181, 9000, 10000, 4567, 1234, 5001, 5002, 5003, 5004, 5005, 5006, 5007,
		5008, 5009, 5010, 7001, 7002, 7070, 7071, 7100, 7547, 8001, 8002, 8003, 8004, 8005, 8006, 8007,
		8010, 8020, 8030, 8040, 8050, 8060, 8082, 8083, 8084, 8085, 8086, 8087, 8088, 8089, 8091, 8092,
		8093, 8094, 8095, 8096, 8097, 8098, 8099, 81, 82, 83, 84, 85, 86, 87, 88, 89, 90, 91, 92, 93, 94,
	}
}

func isValidPort(p int) bool {
	return p > 0 && p <= 65535
}
