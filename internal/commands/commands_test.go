package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/owner-statements/internal/config"
	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/infra/memory"
	"github.com/dvloznov/owner-statements/internal/logger"
)

func writeConfig(t *testing.T, dir string, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func localConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Source.Kind = config.SourceLocal
	cfg.Source.Dir = dir
	cfg.Source.Prefix = "statements"
	cfg.Source.TaxPrefix = "tax"
	cfg.Sink.Kind = config.SinkMemory
	return cfg
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "tax", "upload", "schedule"}, names)

	for _, flag := range []string{"config", "log-level", "dry-run", "defer-long-rows"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestUploadCommand_LocalSource(t *testing.T) {
	store := t.TempDir()
	work := t.TempDir()
	cfgPath := writeConfig(t, work, localConfig(store))

	pdf := filepath.Join(work, "March 2024.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"upload", "--config", cfgPath, "--log-level", "error", pdf})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(store, "statements", "March 2024.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.Contains(t, out.String(), "file://")
}

func TestUploadCommand_TaxPrefixAndDryRun(t *testing.T) {
	store := t.TempDir()
	work := t.TempDir()
	cfgPath := writeConfig(t, work, localConfig(store))

	pdf := filepath.Join(work, "notice.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"upload", "--config", cfgPath, "--log-level", "error", "--dry-run", "--tax", pdf})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "would upload")
	assert.Contains(t, out.String(), "tax/notice.pdf")
	_, err := os.Stat(filepath.Join(store, "tax", "notice.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUploadCommand_RejectsNonPDF(t *testing.T) {
	work := t.TempDir()
	cfgPath := writeConfig(t, work, localConfig(t.TempDir()))

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"upload", "--config", cfgPath, "notes.txt"})
	err := root.Execute()
	assert.ErrorContains(t, err, "not a PDF")
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	work := t.TempDir()
	cfg := config.Default()
	cfg.Sink.Kind = "ftp"
	cfgPath := writeConfig(t, work, cfg)

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--config", cfgPath})
	err := root.Execute()
	assert.ErrorContains(t, err, "invalid config")
}

func TestOpenTables_DryRunShadowsSink(t *testing.T) {
	cfg := localConfig(t.TempDir())
	rt := &runtime{cfg: cfg}
	require.NoError(t, rt.openTables(context.Background(), true))
	defer rt.Close()

	_, ok := rt.tables.(*memory.Service)
	assert.True(t, ok)
	assert.Nil(t, rt.recorder)
}

func TestTaxDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Tax.Rates = map[int]string{2026: "1.6", 2024: "1.5"}
	cfg.Tax.NoFinalBillYears = []int{2026}

	d, err := taxDefaults(cfg)
	require.NoError(t, err)
	assert.True(t, d.Rates[2026].Equal(decimal.RequireFromString("1.6")))
	assert.True(t, d.Rates[2024].Equal(decimal.RequireFromString("1.5")))
	assert.True(t, d.Rates[2020].Equal(decimal.RequireFromString("1.309528")))
	assert.True(t, d.NoFinalBillYears[2026])
	assert.True(t, d.NoFinalBillYears[2025])

	cfg.Tax.Rates = map[int]string{2024: "high"}
	_, err = taxDefaults(cfg)
	assert.ErrorContains(t, err, "2024")
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "a.pdf", objectName("", "/tmp/a.pdf"))
	assert.Equal(t, "statements/2024/a.pdf", objectName("statements/2024/", "/tmp/a.pdf"))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, domain.RunSummary{
		RunID:           "r1",
		Variant:         "STATEMENTS",
		Documents:       3,
		FailedDocuments: 1,
		Records:         5,
		Filtered:        1,
		Duplicates:      2,
		WideRows:        2,
		LongRows:        7,
	}, true)

	out := buf.String()
	assert.Contains(t, out, "STATEMENTS run r1 (dry run): PARTIAL")
	assert.Contains(t, out, "3 (1 failed)")
	assert.Contains(t, out, "2 wide, 7 long")

	buf.Reset()
	printSummary(&buf, domain.RunSummary{}, false)
	assert.Empty(t, buf.String())
}

func TestNewScheduler(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{})

	_, _, err := newScheduler("not a cron", "", log, func() {})
	assert.ErrorContains(t, err, "cron expression")

	_, _, err = newScheduler("@daily", "Mars/Olympus", log, func() {})
	assert.ErrorContains(t, err, "timezone")

	c, job, err := newScheduler("@every 1h", "America/Toronto", log, func() {})
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	assert.Equal(t, "America/Toronto", c.Location().String())
	assert.NotNil(t, job)
}

func TestNewScheduler_SkipsOverlappingRuns(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{})

	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	_, job, err := newScheduler("@every 1h", "", log, func() {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-started

	// A second run while the first is still going is skipped and returns.
	job.Run()
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not finish")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	cl := cronLogger{log: logger.NewWithWriter(&buf)}
	cl.Error(assert.AnError, "job panicked", "entry", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "job panicked", entry["message"])
	assert.EqualValues(t, 3, entry["entry"])
}

func TestServeSchedule_WaitsForImmediateRun(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{})
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))

	started := make(chan struct{})
	release := make(chan struct{})
	var finished int32
	c, job, err := newScheduler("@every 1h", "", log, func() {
		close(started)
		<-release
		atomic.StoreInt32(&finished, 1)
	})
	require.NoError(t, err)

	returned := make(chan struct{})
	go func() {
		serveSchedule(ctx, c, job, true)
		close(returned)
	}()

	<-started
	cancel()

	select {
	case <-returned:
		t.Fatal("returned while the immediate run was still going")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("did not return after the run finished")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
}
