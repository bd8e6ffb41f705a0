package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-city-jobs/internal/apiclient"
)

const usage = `Usage: weather-city-jobs [--host HOST] [--port PORT] <command> [args]

Commands:
  server                              start the API server and the job scheduler
  add NAME COUNTRY [--interval H]     register a city job (interval in hours, 0.25-2)
  get ID                              show a city job
  update ID HOURS                     change the polling interval of a city job
  delete ID                           delete a city job and its observations
  list                                list every city job
  temps ID [--tz ZONE] [--unit c|f]   show the stored temperatures of a city
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("weather-city-jobs", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	host := global.String("host", "127.0.0.1", "server host")
	port := global.Int("port", 8000, "server port")
	if err := global.Parse(args); err != nil {
		return 2
	}

	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, cmdArgs := rest[0], rest[1:]

	if cmd == "server" {
		var overrides serverOverrides
		global.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "host":
				overrides.host = host
			case "port":
				overrides.port = port
			}
		})
		if err := runServer(overrides); err != nil {
			fmt.Fprintf(stderr, "server: %v\n", err)
			return 1
		}
		return 0
	}

	client := apiclient.New(fmt.Sprintf("http://%s:%d", *host, *port))
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	out, err := dispatch(ctx, client, cmd, cmdArgs, stderr)
	if err != nil {
		var apiErr *apiclient.APIError
		switch {
		case errors.As(err, &apiErr):
			fmt.Fprintf(stderr, "Error %d: %s\n", apiErr.StatusCode, prettyJSON(apiErr.Body))
		case errors.Is(err, errUsage):
			fmt.Fprint(stderr, usage)
			return 2
		default:
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	fmt.Fprintln(stdout, prettyJSON(out))
	return 0
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, client *apiclient.Client, cmd string, args []string, stderr io.Writer) (json.RawMessage, error) {
	switch cmd {
	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		fs.SetOutput(stderr)
		interval := fs.Float64("interval", 0, "polling interval in hours")
		pos, err := parseInterspersed(fs, args)
		if err != nil || len(pos) != 2 {
			return nil, errUsage
		}
		var hours *float64
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "interval" {
				hours = interval
			}
		})
		return client.AddJob(ctx, pos[0], pos[1], hours)

	case "get", "delete":
		if len(args) != 1 {
			return nil, errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		if cmd == "get" {
			return client.GetJob(ctx, id)
		}
		return client.DeleteJob(ctx, id)

	case "update":
		if len(args) != 2 {
			return nil, errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		hours, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q: %w", args[1], err)
		}
		return client.UpdateJob(ctx, id, hours)

	case "list":
		if len(args) != 0 {
			return nil, errUsage
		}
		return client.ListJobs(ctx)

	case "temps":
		fs := flag.NewFlagSet("temps", flag.ContinueOnError)
		fs.SetOutput(stderr)
		tz := fs.String("tz", "UTC", "IANA timezone")
		unit := fs.String("unit", "c", "temperature unit, c or f")
		pos, err := parseInterspersed(fs, args)
		if err != nil || len(pos) != 1 {
			return nil, errUsage
		}
		id, err := parseID(pos[0])
		if err != nil {
			return nil, err
		}
		return client.Report(ctx, id, *unit, *tz)

	default:
		return nil, errUsage
	}
}

// parseInterspersed lets flags appear before or after positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid city id %q", s)
	}
	return id, nil
}

func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return strings.TrimSpace(string(data))
	}
	return buf.String()
}
