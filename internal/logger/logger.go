package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// journalSize is how many records the debug panel can scroll back through.
const journalSize = 100

// Entry is a record kept for the debug panel. Op and RequestID come from
// the attributes the gateway client attaches to each request's logger.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Op        string
	RequestID string
}

// Format renders the entry as one panel line.
func (e Entry) Format() string {
	var tag string
	switch {
	case e.Op != "" && e.RequestID != "":
		tag = fmt.Sprintf("[%s %s] ", e.Op, shortID(e.RequestID))
	case e.Op != "":
		tag = "[" + e.Op + "] "
	}
	return fmt.Sprintf("%s %-5s %s%s", e.Time.Format("15:04:05"), levelName(e.Level), tag, e.Message)
}

// OpTally counts the warnings and errors logged for one data service
// operation since the counters were last reset.
type OpTally struct {
	Op     string
	Failed int
}

// journal keeps the newest records at or above floor, and running counts of
// warnings and errors overall and per operation.
type journal struct {
	mu      sync.Mutex
	floor   slog.Level
	entries []Entry
	warns   int
	errors  int
	byOp    map[string]int
}

func newJournal(floor slog.Level) *journal {
	return &journal{floor: floor, byOp: make(map[string]int)}
}

func (j *journal) record(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.Level >= j.floor {
		if len(j.entries) == journalSize {
			copy(j.entries, j.entries[1:])
			j.entries = j.entries[:journalSize-1]
		}
		j.entries = append(j.entries, e)
	}

	switch {
	case e.Level >= slog.LevelError:
		j.errors++
	case e.Level >= slog.LevelWarn:
		j.warns++
	default:
		return
	}
	if e.Op != "" {
		j.byOp[e.Op]++
	}
}

func (j *journal) snapshot() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Entry(nil), j.entries...)
}

func (j *journal) counts() (warn, err int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.warns, j.errors
}

func (j *journal) tallies() []OpTally {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]OpTally, 0, len(j.byOp))
	for op, n := range j.byOp {
		out = append(out, OpTally{Op: op, Failed: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Failed != out[b].Failed {
			return out[a].Failed > out[b].Failed
		}
		return out[a].Op < out[b].Op
	})
	return out
}

func (j *journal) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.warns, j.errors = 0, 0
	clear(j.byOp)
}

// journalHandler feeds every handled record to the journal before passing
// it on. Attributes bound with With are remembered so a request logger's
// op and request_id reach its entries.
type journalHandler struct {
	inner     slog.Handler
	journal   *journal
	op        string
	requestID string
}

func (h *journalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *journalHandler) Handle(ctx context.Context, r slog.Record) error {
	e := Entry{Time: r.Time, Level: r.Level, Message: r.Message, Op: h.op, RequestID: h.requestID}
	r.Attrs(func(a slog.Attr) bool {
		e.Op, e.RequestID = pickAttr(a, e.Op, e.RequestID)
		return true
	})
	h.journal.record(e)
	return h.inner.Handle(ctx, r)
}

func (h *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		next.op, next.requestID = pickAttr(a, next.op, next.requestID)
	}
	return &next
}

func (h *journalHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.inner = h.inner.WithGroup(name)
	return &next
}

func pickAttr(a slog.Attr, op, requestID string) (string, string) {
	switch a.Key {
	case "op":
		op = a.Value.String()
	case "request_id":
		requestID = a.Value.String()
	}
	return op, requestID
}

var (
	// Log is the global structured logger
	Log *slog.Logger
	// LogPath is the file Log writes to, empty when it writes elsewhere
	LogPath string

	logWriter    *lumberjack.Logger
	records      *journal
	debugEnabled bool
)

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultLogPath returns ~/.config/datascope/datascope.log.
func DefaultLogPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".config", "datascope", "datascope.log")
}

// InitLogger writes JSON records at or above level to a rotating file.
// An empty logPath uses DefaultLogPath.
func InitLogger(level slog.Level, logPath string) {
	if logPath == "" {
		logPath = DefaultLogPath()
	}
	_ = os.MkdirAll(filepath.Dir(logPath), 0755)

	logWriter = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	}
	install(level, logWriter)
	LogPath = logPath
}

// InitWriter writes JSON records to w instead of the log file. Tests and
// one-shot commands use it.
func InitWriter(level slog.Level, w io.Writer) {
	logWriter = nil
	install(level, w)
	LogPath = ""
}

// install builds the handler chain. In debug mode the panel shows every
// record; otherwise only warnings and errors.
func install(level slog.Level, w io.Writer) {
	debugEnabled = level <= slog.LevelDebug
	panelMin := slog.LevelWarn
	if debugEnabled {
		panelMin = slog.LevelDebug
	}
	records = newJournal(panelMin)

	Log = slog.New(&journalHandler{
		inner:   slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
		journal: records,
	})
	slog.SetDefault(Log)
}

// Close closes the log file
func Close() {
	if logWriter != nil {
		logWriter.Close()
	}
}

func getLogger() *slog.Logger {
	if Log != nil {
		return Log
	}
	return slog.Default()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	getLogger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	getLogger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	getLogger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

// With creates a new logger with additional attributes
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}

// Entries returns the records kept for the debug panel, oldest first.
func Entries() []Entry {
	if records == nil {
		return nil
	}
	return records.snapshot()
}

// Counts returns the warnings and errors logged since the last reset.
func Counts() (warn, err int) {
	if records == nil {
		return 0, 0
	}
	return records.counts()
}

// FailingOps returns the operations with warnings or errors since the last
// reset, most troubled first.
func FailingOps() []OpTally {
	if records == nil {
		return nil
	}
	return records.tallies()
}

// ResetCounts zeroes the warning and error counters. Kept entries stay.
func ResetCounts() {
	if records != nil {
		records.reset()
	}
}

// DebugEnabled reports whether the logger runs at debug level.
func DebugEnabled() bool {
	return debugEnabled
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// shortID trims a request UUID to its first group.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
