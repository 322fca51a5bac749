package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/portsweep/portsweep/scan"
)

// Config is the scan target extracted from a config file. Port bounds are
// normalised so Start is always the lower one.
type Config struct {
	IP              string
	PortStart       int
	PortEnd         int
	TimeoutMillisec int
}

const (
	keyIP              = "ip"
	keyPortStart       = "port_start"
	keyPortEnd         = "port_end"
	keyTimeoutMillisec = "timeout_millisec"
)

// Load reads a config file and extracts the scan target from it. Any
// problem with the file or its contents is fatal, before any scanning.
func Load(path string) (*Config, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file '%s': %w", path, err)
	}
	defer f.Close()

	return Extract(Parse(f))
}

// Parse reads `key = value` pairs, one per line. Whitespace around key and
// value is trimmed, blank lines and lines without '=' are ignored. There
// is no comment syntax.
func Parse(r io.Reader) map[string]string {

	values := map[string]string{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}

		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		if key == "" || value == "" {
			continue
		}

		values[key] = value
	}

	return values
}

// Extract pulls the required keys out of a parsed config. The smaller of
// port_start/port_end always becomes the lower bound.
func Extract(values map[string]string) (*Config, error) {

	ip, ok := values[keyIP]
	if !ok {
		return nil, fmt.Errorf("config not found: %s", keyIP)
	}

	portStart, err := requireNumber(values, keyPortStart)
	if err != nil {
		return nil, err
	}

	portEnd, err := requireNumber(values, keyPortEnd)
	if err != nil {
		return nil, err
	}

	timeoutMillisec, err := requireNumber(values, keyTimeoutMillisec)
	if err != nil {
		return nil, err
	}

	if portStart > portEnd {
		portStart, portEnd = portEnd, portStart
	}

	return &Config{
		IP:              ip,
		PortStart:       portStart,
		PortEnd:         portEnd,
		TimeoutMillisec: timeoutMillisec,
	}, nil
}

// Job turns the extracted config into a scan job covering every port of
// the configured range.
func (c *Config) Job(parallelism int) (*scan.Job, error) {

	ports := make([]int, 0, c.PortEnd-c.PortStart+1)
	for port := c.PortStart; port <= c.PortEnd; port++ {
		ports = append(ports, port)
	}

	return scan.NewJob(c.IP, ports, time.Duration(c.TimeoutMillisec)*time.Millisecond, parallelism)
}

func requireNumber(values map[string]string, key string) (int, error) {

	value, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("config not found: %s", key)
	}

	number, ok := parseUint(value)
	if !ok {
		return 0, fmt.Errorf("config invalid: %s", key)
	}

	return number, nil
}

// parseUint accepts plain decimal digits only; signs and spaces are
// invalid here.
func parseUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = 10*n + int(c-'0')
		if n > 1<<31 {
			return 0, false
		}
	}
	return n, true
}
