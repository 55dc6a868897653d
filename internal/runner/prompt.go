package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	errorutil "github.com/zan8in/portprobe/pkg/errors"
	"github.com/zan8in/portprobe/pkg/portscan"
)

// largest timeout a time.Duration holds
const maxTimeoutSeconds = float64(math.MaxInt64 / int64(time.Second))

// Prompter collects scan parameters line by line from an interactive
// terminal. Every prompt returns ErrScanInterrupted as soon as ctx is done,
// even while a read is pending.
type Prompter struct {
	out   io.Writer
	lines chan string
	err   error
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{out: out, lines: make(chan string)}
	go func() {
		defer close(p.lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			p.lines <- sc.Text()
		}
		p.err = sc.Err()
	}()
	return p
}

func (p *Prompter) readLine(ctx context.Context, question string) (string, error) {
	if ctx.Err() != nil {
		return "", errorutil.ErrScanInterrupted
	}
	fmt.Fprint(p.out, question)
	select {
	case <-ctx.Done():
		return "", errorutil.ErrScanInterrupted
	case line, ok := <-p.lines:
		if !ok {
			if p.err != nil {
				return "", errors.Wrap(p.err, "could not read input")
			}
			return "", errors.Wrap(io.EOF, "input closed")
		}
		return strings.TrimSpace(line), nil
	}
}

// Host asks until the answer is non-empty and resolves.
func (p *Prompter) Host(ctx context.Context, resolve func(context.Context, string) (string, error)) (host, ip string, err error) {
	for {
		host, err = p.readLine(ctx, "Enter target IP address or hostname: ")
		if err != nil {
			return "", "", err
		}
		if host == "" {
			fmt.Fprintln(p.out, "IP address cannot be empty. Please try again.")
			continue
		}
		ip, err = resolve(ctx, host)
		if err != nil {
			if ctx.Err() != nil {
				return "", "", errorutil.ErrScanInterrupted
			}
			fmt.Fprintln(p.out, "Invalid IP address or hostname. Please try again.")
			continue
		}
		return host, ip, nil
	}
}

// Ports asks until the answer yields at least one valid port. Malformed
// tokens are reported but do not reject the answer.
func (p *Prompter) Ports(ctx context.Context) ([]int, error) {
	for {
		line, err := p.readLine(ctx, "Enter port(s) to scan (e.g., 80, 443, 1-1000, 22,80,443 or top-100): ")
		if err != nil {
			return nil, err
		}
		if line == "" {
			fmt.Fprintln(p.out, "Port range cannot be empty. Please try again.")
			continue
		}
		ports, warnings := portscan.ParsePorts(line)
		for _, w := range warnings {
			fmt.Fprintln(p.out, w)
		}
		if len(ports) == 0 {
			fmt.Fprintln(p.out, "No valid ports found. Please try again.")
			continue
		}
		return ports, nil
	}
}

// Threads asks for the number of concurrent probes; an empty answer keeps def.
func (p *Prompter) Threads(ctx context.Context, def int) (int, error) {
	for {
		line, err := p.readLine(ctx, fmt.Sprintf("Enter number of threads (default: %d): ", def))
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(p.out, "Invalid number. Please enter a valid integer.")
			continue
		}
		if n <= 0 {
			fmt.Fprintln(p.out, "Number of threads must be greater than 0.")
			continue
		}
		return n, nil
	}
}

// Timeout asks for the connect timeout in seconds; an empty answer keeps def.
func (p *Prompter) Timeout(ctx context.Context, def time.Duration) (time.Duration, error) {
	secs := strconv.FormatFloat(def.Seconds(), 'f', -1, 64)
	if !strings.Contains(secs, ".") {
		secs += ".0"
	}
	question := fmt.Sprintf("Enter connection timeout in seconds (default: %s): ", secs)
	for {
		line, err := p.readLine(ctx, question)
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}
		f, err := strconv.ParseFloat(line, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			fmt.Fprintln(p.out, "Invalid number. Please enter a valid float.")
			continue
		}
		if f <= 0 {
			fmt.Fprintln(p.out, "Timeout must be greater than 0.")
			continue
		}
		if f > maxTimeoutSeconds {
			fmt.Fprintf(p.out, "Timeout must not exceed %.0f seconds.\n", maxTimeoutSeconds)
			continue
		}
		d := time.Duration(f * float64(time.Second))
		if d <= 0 {
			fmt.Fprintln(p.out, "Timeout must be greater than 0.")
			continue
		}
		return d, nil
	}
}
