package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type payload struct {
	Server    string `json:"server"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

const filler = "lorem ipsum dolor sit amet "

func main() {
	targetURL := flag.String("url", "http://localhost:5000/api/logs", "Logs endpoint")
	server := flag.String("server", "server1", "Server name to report entries for")
	count := flag.Int("n", 10, "Number of entries to send")
	concurrency := flag.Int("c", 1, "Number of concurrent workers")
	rps := flag.Float64("rps", 1, "Requests per second limit")
	messageSize := flag.Int("message-size", 0, "Pad each message with filler text up to this many bytes")
	flag.Parse()

	log.Printf("Sending %d entries for %q to %s", *count, *server, *targetURL)
	log.Printf("Concurrency: %d, RPS: %.2f", *concurrency, *rps)

	var (
		wg                       sync.WaitGroup
		next                     atomic.Int64
		createdCount, errorCount atomic.Int64
		lastMu                   sync.Mutex
		lastStatus               int
		lastBody                 string
	)
	ctx := context.Background()
	limiter := rate.NewLimiter(rate.Limit(*rps), 1)
	runID := uuid.NewString()[:8]
	start := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			for {
				n := next.Add(1) - 1
				if n >= int64(*count) {
					return
				}
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				body, err := json.Marshal(payload{
					Server:    *server,
					Message:   buildMessage(runID, n, *messageSize),
					Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
				})
				if err != nil {
					errorCount.Add(1)
					continue
				}

				resp, err := client.Post(*targetURL, "application/json", bytes.NewReader(body))
				if err != nil {
					log.Printf("Log %d failed: %v", n+1, err)
					errorCount.Add(1)
					continue
				}
				respBody, _ := io.ReadAll(resp.Body)
				resp.Body.Close()

				if resp.StatusCode == http.StatusCreated {
					createdCount.Add(1)
					log.Printf("Log %d created", n+1)
				} else {
					errorCount.Add(1)
					log.Printf("Log %d rejected: %d %s", n+1, resp.StatusCode, strings.TrimSpace(string(respBody)))
				}

				lastMu.Lock()
				lastStatus, lastBody = resp.StatusCode, string(respBody)
				lastMu.Unlock()
			}
		}()
	}

	wg.Wait()

	log.Println("Finished.")
	log.Printf("Elapsed: %s", time.Since(start).Round(time.Millisecond))
	log.Printf("Created (201): %d", createdCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	if lastStatus != 0 {
		log.Printf("Last status code: %d", lastStatus)
		log.Printf("Last response: %s", strings.TrimSpace(lastBody))
	}
}

// buildMessage returns "Sample log message <n> [run]" padded with filler
// text to at least size bytes.
func buildMessage(runID string, n int64, size int) string {
	msg := fmt.Sprintf("Sample log message %d [%s]", n, runID)
	if len(msg) >= size {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	b.WriteString(" ")
	for b.Len() < size {
		b.WriteString(filler)
	}
	return b.String()[:size]
}
