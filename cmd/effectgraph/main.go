package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jensneuse/abstractlogger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nrf110/effect-graphql/internal/engine"
	"github.com/nrf110/effect-graphql/internal/eventbus"
	"github.com/nrf110/effect-graphql/internal/otel"
	"github.com/nrf110/effect-graphql/internal/registry"
)

const rootUsage = `effectgraph - schema-first GraphQL from typed shapes

USAGE:
  effectgraph <command> [flags]

COMMANDS:
  sdl              Compile the demo library schema and print its SDL
  exec             Run a query or mutation against the demo library
  subscribe        Run a subscription and print one JSON line per event
  help             Show help for any command
`

const sdlUsage = `sdl FLAGS:
  -strict                  Fail on shapes that cannot be mapped (default: false)
  -out <file>              Write SDL to file (default: stdout)
  -log.level <level>       debug, info, warn or error (default: warn)
`

const execUsage = `exec FLAGS:
  -query <document>        GraphQL document (required unless -file is set)
  -file <path>             Read the document from a file
  -operation <name>        Operation to run when the document has several
  -vars <json>             Variables as a JSON object
  -pretty                  Indent the JSON response
  -timeout <duration>      Execution timeout, e.g. 5s (default: 10s)
  -strict                  Fail on shapes that cannot be mapped (default: false)
  -introspection <bool>    Enable introspection (default: true)
  -log.level <level>       debug, info, warn or error (default: warn)
  -otel.endpoint <addr>    OTLP collector endpoint
  -otel.service <name>     OpenTelemetry service name (default: effectgraph)
`

const subscribeUsage = `subscribe FLAGS:
  -query <document>        GraphQL subscription document (required unless -file is set)
  -file <path>             Read the document from a file
  -operation <name>        Operation to run when the document has several
  -vars <json>             Variables as a JSON object
  -count <n>               Stop after n events; 0 runs until the stream ends
  -tick <duration>         Interval of the demo countdown (default: 1s)
  -log.level <level>       debug, info, warn or error (default: warn)
  -otel.endpoint <addr>    OTLP collector endpoint
  -otel.service <name>     OpenTelemetry service name (default: effectgraph)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := args[0]
	cmdArgs := args[1:]
	switch cmd {
	case "sdl":
		return cmdSDL(cmdArgs, stdout, stderr)
	case "exec":
		return cmdExec(ctx, cmdArgs, stdout, stderr)
	case "subscribe":
		return cmdSubscribe(ctx, cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "sdl":
		fmt.Fprint(stdout, sdlUsage)
	case "exec":
		fmt.Fprint(stdout, execUsage)
	case "subscribe":
		fmt.Fprint(stdout, subscribeUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// newLogger builds a zap logger writing to w and adapts it to the
// abstractlogger interface the engine logs through.
func newLogger(level string, w io.Writer) (abstractlogger.Logger, error) {
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zl)

	var al abstractlogger.Level
	switch zl {
	case zapcore.DebugLevel:
		al = abstractlogger.DebugLevel
	case zapcore.InfoLevel:
		al = abstractlogger.InfoLevel
	case zapcore.WarnLevel:
		al = abstractlogger.WarnLevel
	default:
		al = abstractlogger.ErrorLevel
	}
	return abstractlogger.NewZapLogger(zap.New(core), al), nil
}

func readDocument(query, file string) (string, error) {
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("-query or -file is required")
	}
	return query, nil
}

func parseVariables(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var vars map[string]any
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return nil, fmt.Errorf("-vars: %w", err)
	}
	return vars, nil
}

type requestFlags struct {
	query     string
	file      string
	operation string
	vars      string
	strict    bool
	logLevel  string
	endpoint  string
	service   string
}

func (r *requestFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.query, "query", "", "GraphQL document")
	fs.StringVar(&r.file, "file", "", "Read the document from a file")
	fs.StringVar(&r.operation, "operation", "", "Operation name")
	fs.StringVar(&r.vars, "vars", "", "Variables as a JSON object")
	fs.BoolVar(&r.strict, "strict", false, "Fail on shapes that cannot be mapped")
	fs.StringVar(&r.logLevel, "log.level", "warn", "Log level")
	fs.StringVar(&r.endpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&r.service, "otel.service", "effectgraph", "OpenTelemetry service name")
}

func (r *requestFlags) request() (engine.Request, error) {
	doc, err := readDocument(r.query, r.file)
	if err != nil {
		return engine.Request{}, err
	}
	vars, err := parseVariables(r.vars)
	if err != nil {
		return engine.Request{}, err
	}
	return engine.Request{Query: doc, OperationName: r.operation, Variables: vars}, nil
}

// start builds the engine for the demo library with tracing and logging
// wired in. The returned shutdown flushes pending spans.
func (r *requestFlags) start(ctx context.Context, stderr io.Writer, tick time.Duration, opts ...engine.Option) (*engine.Engine, func(), error) {
	logger, err := newLogger(r.logLevel, stderr)
	if err != nil {
		return nil, nil, err
	}
	tracing, shutdown, err := otel.Setup(ctx, r.endpoint, r.service)
	if err != nil {
		return nil, nil, fmt.Errorf("otel setup: %w", err)
	}
	bus := eventbus.New()
	unregister := tracing.Register(bus)

	b := registerLibrary(registry.New(), newLibrary(), tick).Middleware(tracing.FieldMiddleware(nil))
	opts = append([]engine.Option{
		engine.WithStrict(r.strict),
		engine.WithLogger(logger),
		engine.WithEventBus(bus),
	}, opts...)
	e, err := engine.New(b, opts...)
	done := func() {
		unregister()
		_ = shutdown(context.Background())
	}
	if err != nil {
		done()
		return nil, nil, fmt.Errorf("compile schema: %w", err)
	}
	return e, done, nil
}

func cmdSDL(args []string, stdout, stderr io.Writer) error {
	strict := false
	outFile := ""
	logLevel := "warn"
	fs := newFlagSet("sdl")
	fs.BoolVar(&strict, "strict", strict, "Fail on shapes that cannot be mapped")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, sdlUsage)
		return err
	}

	logger, err := newLogger(logLevel, stderr)
	if err != nil {
		return err
	}
	e, err := engine.New(registerLibrary(registry.New(), newLibrary(), time.Second),
		engine.WithStrict(strict), engine.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	for _, d := range e.Degradations() {
		fmt.Fprintf(stderr, "degraded: %s\n", d)
	}
	if outFile == "" {
		fmt.Fprint(stdout, e.SDL())
		return nil
	}
	return os.WriteFile(outFile, []byte(e.SDL()), 0644)
}

func cmdExec(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var rf requestFlags
	pretty := false
	timeout := 10 * time.Second
	introspection := true
	fs := newFlagSet("exec")
	rf.register(fs)
	fs.BoolVar(&pretty, "pretty", pretty, "Indent the JSON response")
	fs.DurationVar(&timeout, "timeout", timeout, "Execution timeout")
	fs.BoolVar(&introspection, "introspection", introspection, "Enable introspection")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, execUsage)
		return err
	}
	req, err := rf.request()
	if err != nil {
		fmt.Fprint(stderr, execUsage)
		return err
	}

	e, done, err := rf.start(ctx, stderr, time.Second,
		engine.WithTimeout(timeout), engine.WithIntrospection(introspection))
	if err != nil {
		return err
	}
	defer done()

	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(e.Execute(ctx, req))
}

func cmdSubscribe(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var rf requestFlags
	count := 0
	tick := time.Second
	fs := newFlagSet("subscribe")
	rf.register(fs)
	fs.IntVar(&count, "count", count, "Stop after n events")
	fs.DurationVar(&tick, "tick", tick, "Interval of the demo countdown")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, subscribeUsage)
		return err
	}
	req, err := rf.request()
	if err != nil {
		fmt.Fprint(stderr, subscribeUsage)
		return err
	}

	e, done, err := rf.start(ctx, stderr, tick)
	if err != nil {
		return err
	}
	defer done()

	enc := json.NewEncoder(stdout)
	sub, res := e.Subscribe(ctx, req)
	if res != nil {
		return enc.Encode(res)
	}
	defer sub.Close()

	for n := 0; count == 0 || n < count; n++ {
		res, ok, err := sub.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}

// newFlagSet returns a flag set that reports parse errors to the caller
// only.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	return fs
}
