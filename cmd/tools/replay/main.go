package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/weather-chat/backend/internal/config"
	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/service/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/stream"
)

// replay runs a captured agent stream, or a live one, through the decoder
// and prints the aggregated reply with the decode stats.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	file := flag.String("file", "", "captured stream to replay")
	message := flag.String("message", "", "send this message to the configured agent instead of replaying a file")
	save := flag.String("save", "", "write the raw live stream to this file")
	chunk := flag.Int("chunk", stream.DefaultChunkSize, "read size in bytes; small values exercise record splitting")
	plain := flag.Bool("plain", false, "ignore structured weather results")
	timeout := flag.Duration("timeout", 60*time.Second, "live request timeout")

	flag.Parse()

	if (*file == "") == (*message == "") {
		flag.Usage()
		log.Fatal("exactly one of -file or -message is required")
	}

	var body io.ReadCloser
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatalf("open %s: %v", *file, err)
		}
		body = f
	} else {
		if err := godotenv.Load(); err != nil {
			log.Printf("[WARN] no .env, using process environment: %v", err)
		}
		raw, err := fetch(*message, *timeout)
		if err != nil {
			log.Fatalf("live request failed: %v", err)
		}
		if *save != "" {
			if err := os.WriteFile(*save, raw, 0o644); err != nil {
				log.Fatalf("save stream: %v", err)
			}
			log.Printf("raw stream saved to %s", *save)
		}
		body = io.NopCloser(bytes.NewReader(raw))
	}
	defer body.Close()

	dec := stream.NewDecoder(
		stream.WithResults(!*plain),
		stream.WithSkipHandler(func(s stream.Skip) {
			log.Printf("[SKIP] %s: %q", s.Reason, s.Line)
		}),
	)
	agg := stream.NewAggregator()

	events := stream.NewEventReader(context.Background(), body, dec, *chunk)
	defer events.Close()
	for {
		ev, err := events.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("read stream: %v", err)
		}
		agg.Apply(ev)
	}

	stats := dec.Stats()
	results, contents := agg.Counts()
	fmt.Println(agg.Text())
	log.Printf("decoded=%d skipped=%d results=%d contents=%d", stats.Decoded, stats.Skipped, results, contents)
}

func fetch(message string, timeout time.Duration) ([]byte, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	profile, ok := agentModel.NewMemoryStore(agentModel.Seed()).FindByID(cfg.Agent.AgentID)
	if !ok {
		return nil, fmt.Errorf("unknown agent %q", cfg.Agent.AgentID)
	}

	client, err := agent.NewClient(agent.ClientConfig{
		Endpoint:      cfg.Agent.Endpoint,
		Timeout:       timeout,
		DevPlayground: cfg.Agent.DevPlayground,
	})
	if err != nil {
		return nil, err
	}

	threadID := cfg.Agent.ThreadID
	if threadID == "" {
		threadID = fmt.Sprintf("replay-%d", time.Now().UnixNano())
	}
	req, err := agent.NewBuilder(profile, cfg.Agent.Options).Build(message, threadID)
	if err != nil {
		return nil, err
	}

	body, err := client.Open(context.Background(), req)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}
