package runner

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/zan8in/portprobe/pkg/config"
	"github.com/zan8in/portprobe/pkg/db/sqlite"
	errorutil "github.com/zan8in/portprobe/pkg/errors"
	plog "github.com/zan8in/portprobe/pkg/log"
)

func init() {
	plog.DisableColor()
}

func listenBanner(t *testing.T, banner string) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_, _ = c.Write([]byte(banner))
			_ = c.Close()
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func testOptions(t *testing.T) *config.Options {
	t.Helper()
	dir := t.TempDir()
	options := &config.Options{
		Silent:  true,
		LogFile: filepath.Join(dir, "portprobe.log"),
	}
	options.ApplyConfig(nil)
	return options
}

func TestRunnerFlagMode(t *testing.T) {
	port := listenBanner(t, "SSH-2.0-runner\r\n")
	dir := t.TempDir()

	options := testOptions(t)
	options.Target = "127.0.0.1"
	options.Ports = strconv.Itoa(port) + ",bogus"
	options.Concurrency = 4
	options.Timeout = 500
	options.Json = filepath.Join(dir, "scan.json")
	options.Database = filepath.Join(dir, "scan.db")

	r, err := New(options)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var out bytes.Buffer
	r.out = &out

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	r.Close()

	text := out.String()
	if !strings.Contains(text, "[+] Port "+strconv.Itoa(port)+" is OPEN - Unknown Service") {
		t.Fatalf("missing open port line:\n%s", text)
	}
	if !strings.Contains(text, "SSH-2.0-runner") || !strings.Contains(text, "Found 1 open port(s):") {
		t.Fatalf("missing report table:\n%s", text)
	}

	if _, err := os.Stat(options.Json); err != nil {
		t.Fatalf("json report not written: %v", err)
	}

	store, err := sqlite.NewSqliteDB(options.Database)
	if err != nil {
		t.Fatalf("NewSqliteDB: %v", err)
	}
	scans, err := store.ListScans(context.Background(), "127.0.0.1", 0)
	if err != nil || len(scans) != 1 || scans[0].OpenCount != 1 {
		t.Fatalf("ListScans = %+v, %v", scans, err)
	}
	store.Close()

	// read the stored scan back through the runner
	listOpts := testOptions(t)
	listOpts.Database = options.Database
	listOpts.ListScans = true
	lr, err := New(listOpts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var listed bytes.Buffer
	lr.out = &listed
	if err := lr.Run(context.Background()); err != nil {
		t.Fatalf("Run list: %v", err)
	}
	lr.Close()
	if !strings.Contains(listed.String(), scans[0].ID) || !strings.Contains(listed.String(), "1 of 1 stored scan(s) shown") {
		t.Fatalf("unexpected scan list:\n%s", listed.String())
	}

	showOpts := testOptions(t)
	showOpts.Database = options.Database
	showOpts.ShowScan = scans[0].ID
	sr, err := New(showOpts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var shown bytes.Buffer
	sr.out = &shown
	if err := sr.Run(context.Background()); err != nil {
		t.Fatalf("Run show: %v", err)
	}
	sr.Close()
	if !strings.Contains(shown.String(), strconv.Itoa(port)) || !strings.Contains(shown.String(), "SSH-2.0-runner") {
		t.Fatalf("unexpected stored results:\n%s", shown.String())
	}
}

func TestRunnerInteractiveMode(t *testing.T) {
	port := listenBanner(t, "")

	options := testOptions(t)
	r, err := New(options)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	var out bytes.Buffer
	r.out = &out
	r.in = strings.NewReader("\n127.0.0.1\n" + strconv.Itoa(port) + "\n2\n0.5\n")

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "No banner") {
		t.Fatalf("expected open port without banner:\n%s", out.String())
	}
}

func TestRunnerNoValidPorts(t *testing.T) {
	options := testOptions(t)
	options.Target = "127.0.0.1"
	options.Ports = "0,70000"

	r, err := New(options)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()
	r.out = &bytes.Buffer{}

	if err := r.Run(context.Background()); !errors.Is(err, errorutil.ErrNoPorts) {
		t.Fatalf("expected ErrNoPorts, got %v", err)
	}
}

func TestRunnerInterruptedWhilePrompting(t *testing.T) {
	options := testOptions(t)
	r, err := New(options)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()
	r.out = &bytes.Buffer{}
	r.in = strings.NewReader("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = r.Run(ctx)
	if !errors.Is(err, errorutil.ErrScanInterrupted) {
		t.Fatalf("expected ErrScanInterrupted, got %v", err)
	}
}
