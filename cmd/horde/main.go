// Package main - horde
// Load generator for the zombiotrack server. Simulates a crowd of observer
// clients spamming commands over WebSocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the horde run.
type Config struct {
	ServerURL       string
	NumClients      int
	CommandInterval time.Duration
	TestDuration    time.Duration
	MaxFloor        int
	MaxRoom         int
}

// Stats tracks performance metrics.
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

// Command types the horde fires at the server.
var commandTypes = []string{
	"STEP",
	"CLEAN",
	"BLOCK",
	"UNBLOCK",
	"RESET_SENSOR",
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 250*time.Millisecond, "Command interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	maxFloor := flag.Int("max-floor", 3, "Exclusive upper bound for floor coordinates")
	maxRoom := flag.Int("max-room", 4, "Exclusive upper bound for room coordinates")
	flag.Parse()

	config := Config{
		ServerURL:       *serverURL,
		NumClients:      *numClients,
		CommandInterval: *interval,
		TestDuration:    *duration,
		MaxFloor:        *maxFloor,
		MaxRoom:         *maxRoom,
	}

	fmt.Println("=========================================")
	fmt.Println("THE HORDE - zombiotrack stress test")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.CommandInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\nStarting clients...")

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("All %d clients started\n\n", config.NumClients)

	// Progress updates
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.MessagesSent)
				recv := atomic.LoadInt64(&stats.MessagesReceived)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("Progress: Sent=%d Recv=%d Errors=%d\n", sent, recv, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// Receiver goroutine counts broadcasts and error replies.
	go func() {
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
		}
	}()

	rng := rand.New(rand.NewSource(int64(clientID)))
	ticker := time.NewTicker(config.CommandInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cmd := generateRandomCommand(rng, config)
			start := time.Now()

			if err := conn.WriteJSON(cmd); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}

			latency := time.Since(start)
			atomic.AddInt64(&stats.MessagesSent, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

func generateRandomCommand(rng *rand.Rand, config Config) map[string]interface{} {
	cmdType := commandTypes[rng.Intn(len(commandTypes))]

	cmd := map[string]interface{}{
		"type": cmdType,
	}
	if cmdType != "STEP" {
		// Occasionally aim past the building edge to exercise the server's
		// bounds handling.
		cmd["floor"] = rng.Intn(config.MaxFloor + 1)
		cmd["room"] = rng.Intn(config.MaxRoom + 1)
	}
	return cmd
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("STRESS TEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	stats.mu.Lock()
	defer stats.mu.Unlock()
	if len(stats.Latencies) > 0 {
		var total time.Duration
		max := stats.Latencies[0]
		for _, l := range stats.Latencies {
			total += l
			if l > max {
				max = l
			}
		}
		fmt.Printf("Avg Write Latency: %v\n", total/time.Duration(len(stats.Latencies)))
		fmt.Printf("Max Write Latency: %v\n", max)
	}

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.1f cmd/s\n", throughput)
	fmt.Println("=========================================")
}
