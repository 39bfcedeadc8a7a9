package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/freewebtopdf/redirector/internal/api"
	"github.com/freewebtopdf/redirector/internal/cache"
	"github.com/freewebtopdf/redirector/internal/config"
	"github.com/freewebtopdf/redirector/internal/conflict"
	"github.com/freewebtopdf/redirector/internal/counter"
	"github.com/freewebtopdf/redirector/internal/domain"
	"github.com/freewebtopdf/redirector/internal/health"
	"github.com/freewebtopdf/redirector/internal/notice"
	"github.com/freewebtopdf/redirector/internal/resolver"
	"github.com/freewebtopdf/redirector/internal/storage"

	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Rules live in a scratch directory so the run never touches real data
	dataDir, err := os.MkdirTemp("", "redirector-bench-*")
	if err != nil {
		fmt.Printf("Failed to create data dir: %v\n", err)
		return
	}
	defer os.RemoveAll(dataDir)

	store := storage.NewStore(dataDir)
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		fmt.Printf("Failed to load store: %v\n", err)
		return
	}

	lruCache := cache.NewLRUCacheWithTTL(cfg.Cache.MaxSize, cfg.Cache.TTL)
	clicks := counter.New(store, counter.Config{
		Mode:      counter.ModeAsync,
		Timeout:   cfg.Counter.Timeout,
		Workers:   cfg.Counter.Workers,
		QueueSize: 10000,
	})
	redirectResolver := resolver.NewResolver(store, lruCache, clicks, resolver.Config{LookupTimeout: cfg.Resolver.LookupTimeout})
	notices := notice.NewMemoryQueue(cfg.Notice.TTL)
	checker := conflict.NewValidator(store, notices, "v1")

	slugs := []string{"promo", "spring-sale", "docs", "partner"}
	ruleIDs := make(map[string]string, len(slugs))
	for _, slug := range slugs {
		rule := &domain.Rule{
			ID:        uuid.New().String(),
			Slug:      slug,
			TargetURL: "https://example.com/landing/" + slug,
			Status:    domain.StatusPublished,
		}
		if err := store.CreateRule(ctx, rule); err != nil {
			fmt.Printf("Failed to create rule: %v\n", err)
			return
		}
		ruleIDs[slug] = rule.ID
	}

	app := api.SetupRouter(api.RouterDependencies{
		Resolver:      redirectResolver,
		Repository:    store,
		Reserved:      store,
		Visits:        store,
		Conflicts:     conflict.NewConflictManager(checker),
		Checker:       checker,
		Notices:       notices,
		Cache:         lruCache,
		Validator:     domain.NewValidator(),
		HealthChecker: health.NewSystemHealthChecker(store, redirectResolver, lruCache),
		CounterStats:  clicks,
	}, api.RouterConfig{
		BodyLimit:   cfg.Server.BodyLimit,
		AdminPrefix: "/v1",
	})

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			fmt.Printf("Server failed: %v\n", err)
		}
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	newClient := func(idle int) *http.Client {
		return &http.Client{
			Timeout: 1 * time.Second,
			// Measure the redirect itself, not the target
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Transport: &http.Transport{
				MaxIdleConns:        idle,
				MaxIdleConnsPerHost: idle,
				IdleConnTimeout:     30 * time.Second,
			},
		}
	}

	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	// One path in five has no rule
	paths := append([]string{}, slugs...)
	paths = append(paths, "no-such-page")

	const (
		numConcurrentRequests = 50
		numRequestsPerWorker  = 20
		totalRequests         = numConcurrentRequests * numRequestsPerWorker
	)

	fmt.Printf("Starting redirect load test with %d concurrent workers, %d requests each (%d total)\n",
		numConcurrentRequests, numRequestsPerWorker, totalRequests)

	var (
		redirectCount int64
		missCount     int64
		errorCount    int64
		totalLatency  time.Duration
		maxLatency    time.Duration
		minLatency    = time.Hour
		expected      = make(map[string]int64)
		mu            sync.Mutex
	)

	startTime := time.Now()
	var wg sync.WaitGroup

	for i := 0; i < numConcurrentRequests; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			client := newClient(100)

			for j := 0; j < numRequestsPerWorker; j++ {
				path := paths[(workerID+j)%len(paths)]

				reqStart := time.Now()
				resp, err := client.Get(baseURL + "/" + path)
				latency := time.Since(reqStart)

				mu.Lock()
				if err != nil {
					errorCount++
					mu.Unlock()
					continue
				}
				_ = resp.Body.Close()

				switch resp.StatusCode {
				case http.StatusMovedPermanently:
					redirectCount++
					expected[path]++
				case http.StatusNotFound:
					missCount++
				default:
					errorCount++
				}

				totalLatency += latency
				if latency > maxLatency {
					maxLatency = latency
				}
				if latency < minLatency {
					minLatency = latency
				}
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	totalTime := time.Since(startTime)

	answered := redirectCount + missCount
	avgLatency := time.Duration(0)
	if answered > 0 {
		avgLatency = totalLatency / time.Duration(answered)
	}

	requestsPerSecond := float64(totalRequests) / totalTime.Seconds()

	fmt.Printf("\n=== Redirect Load Test Results ===\n")
	fmt.Printf("Total time: %v\n", totalTime)
	fmt.Printf("Total requests: %d\n", totalRequests)
	fmt.Printf("Redirects: %d\n", redirectCount)
	fmt.Printf("Fall-through (404): %d\n", missCount)
	fmt.Printf("Failed requests: %d\n", errorCount)
	fmt.Printf("Requests per second: %.2f\n", requestsPerSecond)
	fmt.Printf("Average latency: %v\n", avgLatency)
	fmt.Printf("Min latency: %v\n", minLatency)
	fmt.Printf("Max latency: %v\n", maxLatency)

	// Cached redirect latency
	fmt.Printf("\n=== Cache Performance Test ===\n")
	cacheClient := newClient(10)

	var cacheHitLatencies []time.Duration
	for i := 0; i < 10; i++ {
		reqStart := time.Now()
		resp, err := cacheClient.Get(baseURL + "/promo")
		latency := time.Since(reqStart)

		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusMovedPermanently {
				cacheHitLatencies = append(cacheHitLatencies, latency)
				expected["promo"]++
				redirectCount++
			}
		}
	}

	if len(cacheHitLatencies) > 0 {
		var totalCacheLatency time.Duration
		for _, lat := range cacheHitLatencies {
			totalCacheLatency += lat
		}
		avgCacheLatency := totalCacheLatency / time.Duration(len(cacheHitLatencies))
		fmt.Printf("Average cached redirect latency: %v\n", avgCacheLatency)
	}

	stats := lruCache.Stats()
	fmt.Printf("Cache hits: %d\n", stats.Hits)
	fmt.Printf("Cache misses: %d\n", stats.Misses)
	if stats.Hits+stats.Misses > 0 {
		fmt.Printf("Cache hit rate: %.2f%%\n", stats.HitRatio*100)
	}

	if err := app.Shutdown(); err != nil {
		fmt.Printf("Server shutdown error: %v\n", err)
	}

	// Drain queued clicks before reading counts
	if err := clicks.Close(); err != nil {
		fmt.Printf("Counter close error: %v\n", err)
	}

	fmt.Printf("\n=== Visit Count Check ===\n")
	lost := int64(0)
	for _, slug := range slugs {
		count, err := store.VisitCount(ctx, ruleIDs[slug])
		if err != nil {
			fmt.Printf("Failed to read count for %s: %v\n", slug, err)
			continue
		}
		fmt.Printf("%-12s served=%d counted=%d\n", slug, expected[slug], count)
		if count < expected[slug] {
			lost += expected[slug] - count
		}
	}

	counterStats := clicks.GetStats()
	fmt.Printf("Counter dropped: %v, failed: %v\n", counterStats["dropped"], counterStats["failed"])

	fmt.Printf("\n=== Requirements Check ===\n")
	if lost == 0 {
		fmt.Printf("✓ Every served redirect was counted\n")
	} else {
		fmt.Printf("✗ %d redirects were not counted\n", lost)
	}

	if requestsPerSecond >= 100 {
		fmt.Printf("✓ Concurrent request handling: %.2f RPS (target: >100)\n", requestsPerSecond)
	} else {
		fmt.Printf("✗ Concurrent request handling: %.2f RPS (target: >100)\n", requestsPerSecond)
	}

	if avgLatency < 10*time.Millisecond {
		fmt.Printf("✓ Average response time: %v (target: <10ms)\n", avgLatency)
	} else {
		fmt.Printf("✗ Average response time: %v (target: <10ms)\n", avgLatency)
	}

	fmt.Printf("Load test completed\n")
}
