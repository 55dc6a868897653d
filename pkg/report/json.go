package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	fileutil "github.com/zan8in/pins/file"
	timeutil "github.com/zan8in/pins/time"
	"github.com/zan8in/portprobe/pkg/portscan"
)

const OutputDirectory = "./reports"

type JsonReport struct {
	ReportFile string
}

type JsonResult struct {
	ID        string                 `json:"id"`
	Host      string                 `json:"host"`
	IP        string                 `json:"ip"`
	StartedAt string                 `json:"started_at"`
	Elapsed   float64                `json:"elapsed_seconds"`
	Scanned   int                    `json:"scanned"`
	Anomalies int                    `json:"anomalies,omitempty"`
	Open      []portscan.ProbeResult `json:"open"`
	Results   []portscan.ProbeResult `json:"results"`
}

// NewJsonReport prepares fileName for writing. An empty name selects a
// timestamped file under ./reports.
func NewJsonReport(fileName string) (*JsonReport, error) {
	jr := &JsonReport{}
	if err := jr.checkJson(fileName); err != nil {
		return nil, err
	}
	return jr, nil
}

func (jr *JsonReport) checkJson(fileName string) error {
	if len(fileName) == 0 {
		fileName = filepath.Join(OutputDirectory, timeutil.Format(timeutil.Format_1)+".json")
	}

	if path.Ext(fileName) != ".json" {
		return fmt.Errorf("please change the file extension of the output to .json. Unable to create output file")
	}

	if dir := filepath.Dir(fileName); !fileutil.FolderExists(dir) {
		fileutil.CreateFolder(dir)
	}

	jr.ReportFile = fileName
	return nil
}

// JsonContent converts r into its file representation with results sorted
// by port.
func JsonContent(r *portscan.ScanReport) *JsonResult {
	results := make([]portscan.ProbeResult, len(r.Results))
	copy(results, r.Results)
	sort.Slice(results, func(i, j int) bool { return results[i].Port < results[j].Port })

	return &JsonResult{
		ID:        r.ID,
		Host:      r.Host,
		IP:        r.IP,
		StartedAt: r.StartedAt.Format("2006-01-02 15:04:05"),
		Elapsed:   r.Elapsed.Seconds(),
		Scanned:   len(r.Results),
		Anomalies: r.Anomalies,
		Open:      r.OpenResults(),
		Results:   results,
	}
}

func (jr *JsonReport) Write(r *portscan.ScanReport) error {
	content, err := json.MarshalIndent(JsonContent(r), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(jr.ReportFile, content, 0644); err != nil {
		return fmt.Errorf("unable to write output file: %v", err)
	}
	return nil
}
