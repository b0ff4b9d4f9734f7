package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/iptvscan/internal/config"
	"github.com/nao1215/iptvscan/internal/database"
	"github.com/nao1215/iptvscan/internal/model"
)

// isolate keeps FindConfigFile away from real configuration files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func parseScanFlags(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cmd := NewScanCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	cfg, err := buildConfig(cmd)
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	return cfg
}

func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()
	shorthands := map[string]string{
		"concurrency": "n",
		"timeout":     "t",
		"output":      "o",
		"config":      "c",
	}
	for _, name := range []string{
		"source", "list", "concurrency", "per-host", "timeout", "progress",
		"method", "proxy", "rate", "config", "format", "only-available", "output",
	} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if want, ok := shorthands[name]; ok && flag.Shorthand != want {
			t.Errorf("%s shorthand = %q, want %q", name, flag.Shorthand, want)
		}
	}
}

func TestBuildConfig(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		isolate(t)
		cfg := parseScanFlags(t)

		if cfg.Source != config.DefaultSource {
			t.Errorf("Source = %q, want %q", cfg.Source, config.DefaultSource)
		}
		if cfg.Concurrency != config.DefaultConcurrency {
			t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, config.DefaultConcurrency)
		}
		if !slices.Equal(cfg.Formats, config.DefaultFormats) {
			t.Errorf("Formats = %v, want %v", cfg.Formats, config.DefaultFormats)
		}
		if cfg.ListOnly || cfg.Verbose {
			t.Error("expected ListOnly and Verbose to be false")
		}
	})

	t.Run("config file in the working directory is used", func(t *testing.T) {
		dir := isolate(t)
		content := "source: list.m3u\nprobe:\n  concurrency: 7\n  timeout: 3s\nexport:\n  dir: out\n"
		if err := os.WriteFile(filepath.Join(dir, config.DefaultConfigFile), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cfg := parseScanFlags(t)
		if cfg.Source != "list.m3u" {
			t.Errorf("Source = %q, want list.m3u", cfg.Source)
		}
		if cfg.Concurrency != 7 {
			t.Errorf("Concurrency = %d, want 7", cfg.Concurrency)
		}
		if cfg.Timeout != 3*time.Second {
			t.Errorf("Timeout = %v, want 3s", cfg.Timeout)
		}
		if cfg.OutputDir != "out" {
			t.Errorf("OutputDir = %q, want out", cfg.OutputDir)
		}
	})

	t.Run("explicit flags override the file", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "custom.yaml")
		content := "probe:\n  concurrency: 7\n  perHost: 3\nexport:\n  formats: [json]\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cfg := parseScanFlags(t, "-c", path, "-n", "20", "--format", "csv,md", "--list", "--only-available")
		if cfg.Concurrency != 20 {
			t.Errorf("Concurrency = %d, want 20", cfg.Concurrency)
		}
		if cfg.PerHost != 3 {
			t.Errorf("PerHost = %d, want 3 from the file", cfg.PerHost)
		}
		if !slices.Equal(cfg.Formats, []string{"csv", "md"}) {
			t.Errorf("Formats = %v, want [csv md]", cfg.Formats)
		}
		if !cfg.ListOnly || !cfg.OnlyAvailable {
			t.Error("expected ListOnly and OnlyAvailable to be true")
		}
	})

	t.Run("explicit missing config file is an error", func(t *testing.T) {
		dir := isolate(t)
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(dir, "missing.yaml")}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})
}

// newStreamServer serves a playlist at /playlist.m3u whose links point back
// at the server itself: one working stream, one missing stream and one rtmp
// link.
func newStreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/playlist.m3u", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "#EXTM3U\n"+
			"#EXTINF:-1 tvg-id=\"news.us\" group-title=\"News\",News Channel\n%s/live/news.m3u8\n"+
			"#EXTINF:-1 group-title=\"Movies\",Gone Channel\n%s/live/gone.m3u8\n"+
			"#EXTINF:-1,Radio Channel\nrtmp://radio.example.com/live\n",
			srv.URL, srv.URL)
	})
	mux.HandleFunc("/live/news.m3u8", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/live/gone.m3u8", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return srv
}

func executeScan(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"scan"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScanCmd(t *testing.T) {
	t.Run("probes and exports every format", func(t *testing.T) {
		dir := isolate(t)
		srv := newStreamServer(t)
		outDir := filepath.Join(dir, "out")

		out, err := executeScan(t,
			"--source", srv.URL+"/playlist.m3u",
			"-o", outDir,
			"--format", "all",
			"--progress", "1",
		)
		if err != nil {
			t.Fatalf("scan error = %v\n%s", err, out)
		}

		for _, want := range []string{
			"Loaded 3 links",
			"Tested 3/3 links",
			"Found 3 IPTV channels",
			"Probe complete: 3 links",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}

		for _, name := range []string{
			"iptv_channels.csv", "iptv_channels.txt", "iptv_channels.m3u",
			"iptv_channels.md", "iptv_channels.json", "iptv_channels.db",
		} {
			if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
				t.Errorf("expected %s to be exported: %v", name, err)
			}
		}

		csv, err := os.ReadFile(filepath.Join(outDir, "iptv_channels.csv"))
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"News Channel", "Available", "Unavailable", "Needs manual check"} {
			if !strings.Contains(string(csv), want) {
				t.Errorf("expected csv to contain %q, got:\n%s", want, csv)
			}
		}

		db, err := database.Open(filepath.Join(outDir, "iptv_channels.db"), database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		entries, err := db.Entries(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		want := []model.Status{model.StatusAvailable, model.StatusUnavailable, model.StatusNeedsManualCheck}
		if len(entries) != len(want) {
			t.Fatalf("got %d stored entries, want %d", len(entries), len(want))
		}
		for i, e := range entries {
			if e.Status != want[i] {
				t.Errorf("entry %d status = %v, want %v", i, e.Status, want[i])
			}
		}
	})

	t.Run("only available filters exports", func(t *testing.T) {
		dir := isolate(t)
		srv := newStreamServer(t)

		if _, err := executeScan(t,
			"--source", srv.URL+"/playlist.m3u",
			"-o", dir,
			"--format", "m3u",
			"--only-available",
		); err != nil {
			t.Fatalf("scan error = %v", err)
		}

		m3u, err := os.ReadFile(filepath.Join(dir, "iptv_available_channels.m3u"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(m3u), "/live/news.m3u8") {
			t.Errorf("expected the working stream, got:\n%s", m3u)
		}
		if strings.Contains(string(m3u), "gone") || strings.Contains(string(m3u), "rtmp://") {
			t.Errorf("expected only available streams, got:\n%s", m3u)
		}
	})

	t.Run("list prints the playlist without probing", func(t *testing.T) {
		dir := isolate(t)
		srv := newStreamServer(t)

		out, err := executeScan(t, "--source", srv.URL+"/playlist.m3u", "-o", dir, "--list")
		if err != nil {
			t.Fatalf("scan error = %v", err)
		}
		if !strings.Contains(out, "Radio Channel") {
			t.Errorf("expected channel table, got:\n%s", out)
		}
		if strings.Contains(out, "Probe complete") {
			t.Error("expected no probing with --list")
		}
		if files, _ := os.ReadDir(dir); len(files) != 0 {
			t.Errorf("expected no exports with --list, found %d files", len(files))
		}
	})

	t.Run("local playlist file", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "local.m3u")
		content := "#EXTM3U\n#EXTINF:-1,Multicast\nudp://239.0.0.1:1234\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		out, err := executeScan(t, "--source", path, "-o", dir, "--format", "json")
		if err != nil {
			t.Fatalf("scan error = %v", err)
		}
		if !strings.Contains(out, "Exported 1 channels") {
			t.Errorf("expected export line, got:\n%s", out)
		}
	})

	t.Run("invalid configuration is rejected", func(t *testing.T) {
		isolate(t)
		if _, err := executeScan(t, "-n", "0"); err == nil {
			t.Fatal("expected configuration error")
		}
		if _, err := executeScan(t, "--format", "pdf"); err == nil {
			t.Fatal("expected unsupported format error")
		}
	})
}

func TestExportAllSingleWrap(t *testing.T) {
	t.Parallel()

	// A regular file where the output directory should be.
	blocker := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}
	cfg := config.NewConfig()
	cfg.OutputDir = blocker
	cfg.Formats = []string{config.FormatCSV}

	entries := []*model.Entry{model.NewEntry("News", "http://cdn.example.com/news.m3u8")}
	run := model.Summarize(entries, time.Second)

	var out bytes.Buffer
	err := exportAll(context.Background(), &out, cfg, entries, run)
	if err == nil {
		t.Fatal("expected export error")
	}
	if n := strings.Count(err.Error(), "failed to"); n != 1 {
		t.Errorf("expected a single wrapper, got %q", err.Error())
	}
	if out.Len() != 0 {
		t.Errorf("expected no export lines, got %q", out.String())
	}
}
