package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/zan8in/portprobe/pkg/config"
	"github.com/zan8in/portprobe/pkg/log"
)

func ShowBanner() string {
	return "portprobe"
}

// ShowBanner2 prints the tool name, version and title block.
func ShowBanner2(w io.Writer) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintln(w, log.LogColor.Title(ShowBanner())+" - v"+config.Version+" - Multi-threaded Port Scanner with Banner Grabbing")
	fmt.Fprintln(w, rule+"\n")
}
