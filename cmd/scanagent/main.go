// cmd/scanagent/main.go
//
// Operator client for scanhub. In scan mode each stdin line is treated as the
// code currently in frame and committed through the session; with -watch it
// tails a mode's results feed instead.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"scanhub/internal/config"
	"scanhub/internal/domain"
	"scanhub/internal/feed"
	"scanhub/internal/session"
	"scanhub/internal/submit"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (optional)")
	baseURL := flag.String("base-url", "", "collector base URL override")
	mode := flag.String("mode", "", "initial mode override: TEST or FINAL")
	watch := flag.Bool("watch", false, "follow the results feed instead of scanning")
	mock := flag.Bool("mock", false, "attach a mock bridge that fabricates codes")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *baseURL != "" {
		cfg.Agent.BaseURL = *baseURL
	}
	if *mode != "" {
		cfg.Agent.Mode = *mode
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *watch {
		runWatch(ctx, cfg)
		return
	}
	runScan(ctx, cfg, *mock)
}

func runScan(ctx context.Context, cfg config.Config, useMock bool) {
	client, err := submit.NewClient(submit.Config{
		Endpoint: strings.TrimRight(cfg.Agent.BaseURL, "/") + "/api/scan",
		Timeout:  time.Duration(cfg.Agent.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("submit client: %v", err)
	}

	var bridge *mockBridge
	sessCfg := session.Config{
		Mode:      domain.ParseMode(cfg.Agent.Mode),
		Submitter: client,
		Status:    domain.StatusFunc(func(text string) { fmt.Println("status:", text) }),
	}
	if useMock {
		bridge = &mockBridge{ctx: ctx}
		sessCfg.Source = bridge
	}

	sess := session.New(sessCfg)
	if bridge != nil {
		bridge.sess = sess
	}

	fmt.Printf("mode %s — type a code to commit it, /mode TEST|FINAL to switch, /commit to ask the bridge, ctrl-d to quit\n", sess.Mode())

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())

		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/mode "):
			sess.SetMode(domain.ParseMode(strings.TrimSpace(strings.TrimPrefix(line, "/mode "))))
			fmt.Println("mode:", sess.Mode())
		case line == "/commit":
			sess.Commit(ctx)
		default:
			sess.SetLiveCode(line)
			sess.Commit(ctx)
		}
	}
	if err := sc.Err(); err != nil {
		log.Printf("stdin: %v", err)
	}
}

func runWatch(ctx context.Context, cfg config.Config) {
	f, err := feed.New(feed.Config{
		BaseURL: cfg.Agent.BaseURL,
		Mode:    domain.ParseMode(cfg.Agent.Mode),
		Sink:    printSink{},
	})
	if err != nil {
		log.Fatalf("feed: %v", err)
	}

	if err := f.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("feed failed: %v", err)
	}
}

type printSink struct{}

func (printSink) Reset(records []domain.Record) {
	for _, rec := range records {
		printRecord(rec)
	}
	fmt.Printf("-- %d records --\n", len(records))
}

func (printSink) Append(rec domain.Record) { printRecord(rec) }

func (printSink) Status(text string) { log.Printf("feed: %s", text) }

func printRecord(rec domain.Record) {
	if rec.Mode == domain.ModeTest {
		fmt.Printf("%s  %s  assembly=%s  location=%s\n", rec.Timestamp, rec.Mode, rec.Assembly, rec.Location)
		return
	}
	fmt.Printf("%s  %s  code=%s\n", rec.Timestamp, rec.Mode, rec.Code)
}
