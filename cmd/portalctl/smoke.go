package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"
)

type smokeTarget struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type smokeConfig struct {
	Targets []smokeTarget `json:"targets"`
}

type smokeResult struct {
	Target   smokeTarget
	Status   int
	Envelope bool
	Duration time.Duration
	Err      error
}

func (r smokeResult) ok() bool {
	return r.Err == nil && r.Status == r.Target.Expect && r.Envelope
}

func runSmoke(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("smoke")
	base := fs.String("base", "http://localhost:8080", "API base URL")
	targetsPath := fs.String("targets", filepath.Join("scripts", "smoke_targets.json"), "path to JSON targets file")
	timeout := fs.Duration("timeout", 5*time.Second, "HTTP client timeout")
	parallel := fs.Int("parallel", 4, "concurrent requests")
	if err := fs.Parse(args); err != nil {
		return err
	}
	targets, err := loadSmokeTargets(*targetsPath)
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}

	results, err := smoke(ctx, &http.Client{Timeout: *timeout}, *base, targets, *parallel)
	if err != nil {
		return err
	}
	breaking, optional := printSmokeReport(out, results)
	fmt.Fprintf(out, "Breaking failures: %d, Optional failures: %d\n", breaking, optional)
	if breaking > 0 {
		return fmt.Errorf("%d critical targets failed", breaking)
	}
	return nil
}

func loadSmokeTargets(path string) ([]smokeTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg smokeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	for i := range cfg.Targets {
		if cfg.Targets[i].Expect == 0 {
			cfg.Targets[i].Expect = http.StatusOK
		}
	}
	return cfg.Targets, nil
}

// smoke probes every target and keeps results in target order.
func smoke(ctx context.Context, client *http.Client, base string, targets []smokeTarget, parallel int) ([]smokeResult, error) {
	if parallel < 1 {
		parallel = 1
	}
	results := make([]smokeResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, tgt := range targets {
		i, tgt := i, tgt
		g.Go(func() error {
			results[i] = probe(gctx, client, base, tgt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func probe(ctx context.Context, client *http.Client, base string, tgt smokeTarget) smokeResult {
	res := smokeResult{Target: tgt}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		res.Err = err
		return res
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()
	res.Duration = time.Since(start)
	res.Status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = fmt.Errorf("read body: %w", err)
		return res
	}
	res.Envelope = isEnvelope(resp.Header.Get("Content-Type"), body)
	return res
}

// isEnvelope reports whether a JSON body carries one of the response envelope keys.
// Non-JSON bodies such as metrics or file downloads pass unchecked.
func isEnvelope(contentType string, body []byte) bool {
	if !strings.Contains(contentType, "application/json") {
		return true
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return false
	}
	for _, key := range []string{"data", "message", "error", "status"} {
		if _, ok := doc[key]; ok {
			return true
		}
	}
	return false
}

func printSmokeReport(w io.Writer, results []smokeResult) (breaking, optional int) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Result", "Method", "Path", "Expected", "Got", "Duration", "Note"})
	for _, r := range results {
		verdict := color.GreenString("OK")
		note := ""
		if !r.ok() {
			if r.Target.Critical {
				breaking++
				verdict = color.RedString("FAIL")
			} else {
				optional++
				verdict = color.YellowString("WARN")
			}
			switch {
			case r.Err != nil:
				note = r.Err.Error()
			case r.Status != r.Target.Expect:
				note = "status mismatch"
			default:
				note = "body is not a response envelope"
			}
		}
		method := r.Target.Method
		if method == "" {
			method = http.MethodGet
		}
		table.Append([]string{
			verdict,
			strings.ToUpper(method),
			r.Target.Path,
			strconv.Itoa(r.Target.Expect),
			strconv.Itoa(r.Status),
			r.Duration.Round(time.Millisecond).String(),
			note,
		})
	}
	table.Render()
	return breaking, optional
}
