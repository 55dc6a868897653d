package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/zan8in/portprobe/pkg/log"
	"github.com/zan8in/portprobe/pkg/portscan"
)

const (
	lineWidth      = 80
	bannerWidth    = 38
	bannerCutWidth = 35
)

// Render prints the open ports of r as a table sorted by port, followed by
// the total scan time.
func Render(w io.Writer, r *portscan.ScanReport) {
	rule := strings.Repeat("=", lineWidth)

	target := r.Host
	if r.IP != "" && r.IP != r.Host {
		target = fmt.Sprintf("%s (%s)", r.Host, r.IP)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, log.LogColor.Bold("PORT SCAN RESULTS FOR "+target))
	fmt.Fprintln(w, rule)

	open := r.OpenResults()
	switch {
	case len(r.Results) == 0:
		fmt.Fprintln(w, "\nNo ports were scanned.")
	case len(open) == 0:
		fmt.Fprintln(w, "\nNo open ports found.")
	default:
		fmt.Fprintf(w, "\nFound %d open port(s):\n\n", len(open))
		fmt.Fprintf(w, "%-10s %-10s %-20s %-40s\n", "Port", "Status", "Service", "Banner")
		fmt.Fprintln(w, strings.Repeat("-", lineWidth))

		for _, res := range open {
			service := res.Service
			if service == "" {
				service = "Unknown"
			}
			banner := res.Banner
			if banner == "" {
				banner = "No banner"
			}
			banner = TruncateBanner(banner)

			fmt.Fprintf(w, "%-10d %s %s %s\n",
				res.Port,
				log.LogColor.Open(fmt.Sprintf("%-10s", "OPEN")),
				log.LogColor.Service(fmt.Sprintf("%-20s", service)),
				log.LogColor.Banner(fmt.Sprintf("%-40s", banner)),
			)
		}
	}

	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintf(w, "Scan completed in %.2f seconds\n", r.Elapsed.Seconds())
	if r.Anomalies > 0 {
		fmt.Fprintln(w, log.LogColor.Warning(fmt.Sprintf("%d probe(s) failed unexpectedly and were counted as closed", r.Anomalies)))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

var bannerReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// TruncateBanner flattens line breaks and shortens banners wider than the
// table column, marking the cut with "...".
func TruncateBanner(banner string) string {
	banner = bannerReplacer.Replace(banner)
	runes := []rune(banner)
	if len(runes) > bannerWidth {
		return string(runes[:bannerCutWidth]) + "..."
	}
	return banner
}
