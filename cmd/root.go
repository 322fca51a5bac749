package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/portsweep/portsweep/config"
	"github.com/portsweep/portsweep/scan"
	"github.com/portsweep/portsweep/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var debug bool
var timeoutMS int = 1000
var parallelism int = 256
var portSelection string
var scanType = "batch"
var configFile string
var versionRequested bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&versionRequested, "version", "", versionRequested, "Output version information and exit")
	rootCmd.PersistentFlags().StringVarP(&scanType, "scan-type", "s", scanType, "Scan type. Must be one of batch, connect")
	rootCmd.PersistentFlags().BoolVarP(&debug, "verbose", "v", debug, "Enable verbose logging")
	rootCmd.PersistentFlags().IntVarP(&timeoutMS, "timeout-ms", "t", timeoutMS, "Per-window connect timeout in MS")
	rootCmd.PersistentFlags().IntVarP(&parallelism, "workers", "w", parallelism, "Maximum concurrently outstanding connection attempts")
	rootCmd.PersistentFlags().StringVarP(&portSelection, "ports", "p", portSelection, "Ports to scan. Comma separated, can use hyphens e.g. 22,80,443,8080-8090")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", configFile, "Read the target from a key = value config file instead of flags")
}

func createScanner(scanTypeStr string, timeout time.Duration, routines int) (scan.Scanner, error) {
	switch strings.ToLower(scanTypeStr) {
	case "batch", "nonblock":
		return scan.NewBatchScanner(timeout, routines), nil
	case "connect":
		return scan.NewConnectScanner(timeout, routines), nil
	}

	return nil, fmt.Errorf("unknown scan type '%s'", scanTypeStr)
}

// createJob assembles the scan job from either the config file or the
// command line, whichever the user picked.
func createJob(args []string) (*scan.Job, error) {

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		return cfg.Job(parallelism)
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("please specify a target")
	}

	ports, err := getPorts(portSelection)
	if err != nil {
		return nil, err
	}

	return scan.NewJob(args[0], ports, time.Millisecond*time.Duration(timeoutMS), parallelism)
}

var rootCmd = &cobra.Command{
	Use:   "portsweep",
	Short: "Portsweep is a TCP connect scanner",
	Long:  `A TCP port scanner probing hosts in bounded batches of non-blocking connects.`,
	Run: func(cmd *cobra.Command, args []string) {

		if versionRequested {
			v := version.Version
			if v == "" {
				v = "development version"
			}
			fmt.Printf("portsweep %s\n", v)
			return
		}

		if debug {
			log.SetLevel(log.DebugLevel)
		}

		job, err := createJob(args)
		if err != nil {
			fail(err)
		}

		scanner, err := createScanner(scanType, job.Timeout, job.Parallelism)
		if err != nil {
			fail(err)
		}

		log.Debugf("Starting scanner...")
		if err := scanner.Start(); err != nil {
			fail(err)
		}
		defer scanner.Stop()

		startTime := time.Now()

		fmt.Printf("\nStarting scan at %s\n\n", startTime.String())
		log.Debugf("Scanning %d ports on %s...", len(job.Ports), job.Host)

		table, err := scanner.Scan(context.Background(), job)
		if err != nil {
			fail(err)
		}

		fmt.Println(table.String())
		fmt.Printf("Scan complete in %s.\n", time.Since(startTime).String())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}

// fail prints the single-line diagnostic and exits non-zero, per the
// process contract: 0 on success, 1 on any configuration or fatal
// resource error.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func getPorts(selection string) ([]int, error) {
	if selection == "" {
		return scan.DefaultPorts, nil
	}
	ports := []int{}
	ranges := strings.Split(selection, ",")
	for _, r := range ranges {
		r = strings.TrimSpace(r)
		if strings.Contains(r, "-") {
			parts := strings.Split(r, "-")
			if len(parts) != 2 {
				return nil, fmt.Errorf("invalid port selection segment: '%s'", r)
			}

			p1, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, fmt.Errorf("invalid port number: '%s'", parts[0])
			}

			p2, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("invalid port number: '%s'", parts[1])
			}

			if p1 > p2 {
				return nil, fmt.Errorf("invalid port range: %d-%d", p1, p2)
			}

			for i := p1; i <= p2; i++ {
				ports = append(ports, i)
			}

		} else {
			if port, err := strconv.Atoi(r); err != nil {
				return nil, fmt.Errorf("invalid port number: '%s'", r)
			} else {
				ports = append(ports, port)
			}
		}
	}
	return ports, nil
}
