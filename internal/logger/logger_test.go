package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestJournalKeepsRequestContext(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(slog.LevelInfo, &buf)

	Info("not shown outside debug mode")
	With("op", "run_query", "request_id", "3f2a9c1e-77aa-4b7e-9d55-0c1f2e3a4b5c").Warn("Data service error", "status", 400)
	Error("boom")

	entries := Entries()
	if len(entries) != 2 {
		t.Fatalf("kept %d entries, want 2", len(entries))
	}
	if entries[0].Op != "run_query" || entries[0].RequestID == "" {
		t.Errorf("entry = %+v", entries[0])
	}
	if got := entries[0].Format(); !strings.Contains(got, "WARN  [run_query 3f2a9c1e] Data service error") {
		t.Errorf("format = %q", got)
	}
	if got := entries[1].Format(); !strings.HasSuffix(got, "ERROR boom") {
		t.Errorf("format = %q", got)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("wrote %d lines, want 3", len(lines))
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["op"] != "run_query" || rec["msg"] != "Data service error" {
		t.Errorf("record = %v", rec)
	}
}

func TestFailingOpsAndReset(t *testing.T) {
	InitWriter(slog.LevelInfo, &bytes.Buffer{})

	page := With("op", "fetch_page")
	query := With("op", "run_query")
	query.Warn("slow")
	query.Error("failed")
	page.Error("failed")
	page.Info("ok")
	Warn("no op attached")

	warn, errs := Counts()
	if warn != 2 || errs != 2 {
		t.Errorf("counts = %d/%d, want 2/2", warn, errs)
	}
	ops := FailingOps()
	if len(ops) != 2 || ops[0] != (OpTally{Op: "run_query", Failed: 2}) || ops[1] != (OpTally{Op: "fetch_page", Failed: 1}) {
		t.Errorf("failing ops = %+v", ops)
	}

	ResetCounts()
	if warn, errs = Counts(); warn != 0 || errs != 0 {
		t.Errorf("counts after reset = %d/%d", warn, errs)
	}
	if len(FailingOps()) != 0 {
		t.Error("failing ops survived reset")
	}
	if len(Entries()) != 4 {
		t.Errorf("reset dropped entries: %d left", len(Entries()))
	}
}

func TestDebugModeKeepsEverything(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(slog.LevelWarn, &buf)
	Debug("hidden")
	Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("records below warn were written: %s", buf.String())
	}
	if DebugEnabled() {
		t.Error("debug reported enabled at warn level")
	}

	InitWriter(ParseLevel("DEBUG"), &buf)
	if !DebugEnabled() {
		t.Fatal("debug not enabled")
	}
	Debug("request sent", "op", "upload")
	entries := Entries()
	if len(entries) != 1 || entries[0].Level != slog.LevelDebug || entries[0].Op != "upload" {
		t.Errorf("entries = %+v", entries)
	}
	if warn, errs := Counts(); warn != 0 || errs != 0 {
		t.Errorf("debug record counted as a problem: %d/%d", warn, errs)
	}
}

func TestJournalDropsOldest(t *testing.T) {
	j := newJournal(slog.LevelInfo)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < journalSize+5; i++ {
		j.record(Entry{Time: base.Add(time.Duration(i) * time.Second), Level: slog.LevelInfo, Message: fmt.Sprint(i)})
	}
	got := j.snapshot()
	if len(got) != journalSize {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Message != "5" || got[len(got)-1].Message != fmt.Sprint(journalSize+4) {
		t.Errorf("kept %s..%s", got[0].Message, got[len(got)-1].Message)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
