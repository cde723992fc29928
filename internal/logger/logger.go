package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const service = "pdfcutter"

// Options defines logger initialization parameters.
type Options struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Console receives human or JSON output; defaults to stdout.
	Console io.Writer

	// Axiom
	SendToAxiom  bool
	AxiomAPIKey  string
	AxiomOrgID   string
	AxiomDataset string
	AxiomFlush   time.Duration
}

var shipper *axiomShipper

// Init sets up the global logger: rotated file, console, and optionally
// Axiom for info and above.
func Init(opts Options) error {
	var writers []io.Writer

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("create logs dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	if opts.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339})
	} else {
		writers = append(writers, console)
	}

	if opts.SendToAxiom && opts.AxiomAPIKey != "" {
		s, err := newAxiomShipper(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
		} else {
			shipper = s
			writers = append(writers, &axiomWriter{send: s.send})
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().Timestamp().Str("service", service).
		Logger()
	return nil
}

// Close flushes events still queued for Axiom.
func Close() {
	if shipper != nil {
		shipper.Close()
		shipper = nil
	}
}

// ForJob returns a child logger tagged with the cut job id.
func ForJob(jobID string) zerolog.Logger {
	return log.Logger.With().Str("job_id", jobID).Logger()
}

// cutFields are lifted to the top level of Axiom events. Everything else a
// log line carries is nested under "fields".
var cutFields = []string{"job_id", "mode", "source", "path", "page", "pages", "error"}

// axiomWriter turns zerolog JSON lines into Axiom events. Debug and trace
// lines never leave the process.
type axiomWriter struct {
	send func(axiom.Event)
}

func (w *axiomWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.InfoLevel && l != zerolog.NoLevel {
		return len(p), nil
	}
	return w.Write(p)
}

func (w *axiomWriter) Write(p []byte) (int, error) {
	var line map[string]any
	if err := json.Unmarshal(p, &line); err != nil {
		line = map[string]any{zerolog.MessageFieldName: string(p)}
	}
	w.send(cutEvent(line))
	return len(p), nil
}

func cutEvent(line map[string]any) axiom.Event {
	ev := axiom.Event{
		ingest.TimestampField: eventTime(line[zerolog.TimestampFieldName]),
		"service":             service,
		"level":               "info",
		"message":             line[zerolog.MessageFieldName],
	}
	if lvl, ok := line[zerolog.LevelFieldName].(string); ok {
		ev["level"] = lvl
	}
	for _, k := range []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName, "service"} {
		delete(line, k)
	}
	for _, k := range cutFields {
		if v, ok := line[k]; ok {
			ev[k] = v
			delete(line, k)
		}
	}
	if len(line) > 0 {
		ev["fields"] = line
	}
	return ev
}

func eventTime(v any) time.Time {
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Now()
}

const batchSize = 200

// axiomShipper batches events and ingests them on a timer or when a batch
// fills. Events sent while the queue is full are counted and dropped.
type axiomShipper struct {
	client  *axiom.Client
	dataset string
	events  chan axiom.Event
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

func newAxiomShipper(opts Options) (*axiomShipper, error) {
	dataset := opts.AxiomDataset
	if dataset == "" {
		dataset = "dev_" + service
	}
	copts := []axiom.Option{axiom.SetToken(opts.AxiomAPIKey)}
	if opts.AxiomOrgID != "" {
		copts = append(copts, axiom.SetOrganizationID(opts.AxiomOrgID))
	}
	c, err := axiom.NewClient(copts...)
	if err != nil {
		return nil, err
	}
	every := opts.AxiomFlush
	if every <= 0 {
		every = 10 * time.Second
	}
	s := &axiomShipper{
		client:  c,
		dataset: dataset,
		events:  make(chan axiom.Event, 5*batchSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run(every)
	return s, nil
}

func (s *axiomShipper) send(ev axiom.Event) {
	select {
	case <-s.stop:
		return
	default:
	}
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
	}
}

func (s *axiomShipper) run(every time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	batch := make([]axiom.Event, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, err := s.client.IngestEvents(ctx, s.dataset, batch); err != nil {
			fmt.Fprintf(os.Stderr, "axiom ingest of %d events failed: %v\n", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-s.events:
			batch = append(batch, ev)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stop:
			for {
				select {
				case ev := <-s.events:
					batch = append(batch, ev)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *axiomShipper) Close() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	if n := s.dropped.Load(); n > 0 {
		fmt.Fprintf(os.Stderr, "axiom dropped %d events\n", n)
	}
}
