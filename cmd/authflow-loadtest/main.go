package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chatline/authflow"
	"github.com/chatline/authflow/internal/devidentity"
	"github.com/chatline/authflow/password"
	"github.com/chatline/authflow/session"
	"github.com/redis/go-redis/v9"
)

const loadPassword = "load-test-password"

func main() {
	var (
		accounts    = flag.Int("accounts", 50, "number of accounts to register")
		concurrency = flag.Int("concurrency", 16, "number of concurrent workers")
		ops         = flag.Int("ops", 500, "login submissions in the login phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt", "session key prefix")
		identityURL = flag.String("identity-url", "", "identity service base URL; if empty, an in-process dev server is started")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	baseURL := *identityURL
	if baseURL == "" {
		url, stop, err := startDevIdentity(logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start dev identity service: %v\n", err)
			os.Exit(1)
		}
		defer stop()
		baseURL = url
		fmt.Printf("using in-process identity service at %s\n", baseURL)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := authflow.DefaultConfig()
	cfg.Identity.BaseURL = baseURL
	cfg.Navigation.LoginRedirectDelay = 0
	cfg.Navigation.RegisterRedirectDelay = 0

	newClient := func(scope string) *authflow.Client {
		client, err := authflow.New().
			WithConfig(cfg).
			WithSessionStore(session.NewRedisStore(rdb, *prefix+":"+scope, time.Hour)).
			WithLogger(logger).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build client: %v\n", err)
			os.Exit(1)
		}
		return client
	}

	usernames := make([]string, *accounts)
	fmt.Printf("registering %d accounts...\n", *accounts)
	startSeed := time.Now()
	seeder := newClient("seed")
	reg := seeder.NewRegistrationFlow()
	for i := range usernames {
		usernames[i] = fmt.Sprintf("user-%d", i)
		err := reg.Submit(ctx, authflow.RegistrationCredentials{
			Username: usernames[i],
			Email:    usernames[i] + "@example.com",
			Password: loadPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "register %s failed: %v\n", usernames[i], err)
			os.Exit(1)
		}
	}
	reg.Close()
	seeder.Close()
	fmt.Printf("registered in %s\n", time.Since(startSeed).Round(time.Millisecond))

	clients := make([]*authflow.Client, *concurrency)
	for i := range clients {
		clients[i] = newClient(fmt.Sprintf("w%d", i))
		defer clients[i].Close()
	}

	loginStats := runLoginPhase(ctx, clients, usernames, *ops)
	contention := runContentionPhase(ctx, clients[0], usernames[0], *concurrency)

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	fmt.Printf("contention: submitted=%d accepted=%d rejected_in_flight=%d\n",
		contention.submitted, contention.accepted, contention.rejected)
	printCounters(clients)
}

// startDevIdentity serves a devidentity.Server on a loopback port.
func startDevIdentity(logger *slog.Logger) (string, func(), error) {
	cfg := devidentity.DefaultConfig(bytes.Repeat([]byte("l"), 32))
	cfg.Logger = logger
	cfg.Password = password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	srv, err := devidentity.New(cfg)
	if err != nil {
		return "", nil, err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	httpServer := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = httpServer.Serve(ln) }()
	return "http://" + ln.Addr().String() + cfg.Prefix + "/", func() { _ = httpServer.Close() }, nil
}

// runLoginPhase has each worker log in through its own client and store scope.
func runLoginPhase(ctx context.Context, clients []*authflow.Client, usernames []string, ops int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w, client := range clients {
		wg.Add(1)
		go func(worker int, client *authflow.Client) {
			defer wg.Done()
			flow := client.NewLoginFlow()
			defer flow.Close()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				creds := authflow.LoginCredentials{
					Username: usernames[(i+worker)%len(usernames)],
					Password: loadPassword,
				}
				t0 := time.Now()
				err := flow.Submit(ctx, creds)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w, client)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type contentionStats struct {
	submitted int
	accepted  int64
	rejected  int64
}

// runContentionPhase fires n simultaneous submissions at one flow. Exactly
// one should be accepted while it is in flight.
func runContentionPhase(ctx context.Context, client *authflow.Client, username string, n int) contentionStats {
	flow := client.NewLoginFlow()
	defer flow.Close()

	var (
		wg       sync.WaitGroup
		gate     = make(chan struct{})
		accepted int64
		rejected int64
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			err := flow.Submit(ctx, authflow.LoginCredentials{Username: username, Password: loadPassword})
			switch {
			case errors.Is(err, authflow.ErrSubmitInProgress):
				atomic.AddInt64(&rejected, 1)
			case err == nil:
				atomic.AddInt64(&accepted, 1)
			}
		}()
	}
	close(gate)
	wg.Wait()
	return contentionStats{submitted: n, accepted: accepted, rejected: rejected}
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// printCounters sums every worker's non-zero counters.
func printCounters(clients []*authflow.Client) {
	totals := map[authflow.MetricID]uint64{}
	for _, c := range clients {
		for id, v := range c.MetricsSnapshot().Counters {
			totals[id] += v
		}
	}
	ids := make([]authflow.MetricID, 0, len(totals))
	for id, v := range totals {
		if v > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Printf("  %s=%d\n", id.Name(), totals[id])
	}
}
