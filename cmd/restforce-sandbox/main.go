// restforce-sandbox serves an in-memory org over HTTP so clients can be
// exercised locally without a real instance. Latency and failure injection
// make it usable for resilience testing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/9re/restforce/internal/devseed"
	"github.com/9re/restforce/pkg/restforce/mock"
)

type failConfig struct {
	rate float64
	code int
}

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	seed := flag.String("seed", "", "path to JSON seed for the mock org")
	pageSize := flag.Int("page-size", 0, "query page size (0 disables pagination)")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	flag.Parse()

	var orgOpts []mock.Option
	if *pageSize > 0 {
		orgOpts = append(orgOpts, mock.WithPageSize(*pageSize))
	}
	org := mock.New(orgOpts...)

	if *seed != "" {
		entries, err := devseed.LoadSObjectSeed(*seed)
		if err != nil {
			log.Fatalf("load seed: %v", err)
		}
		if err := org.Seed(entries); err != nil {
			log.Fatalf("apply seed: %v", err)
		}
	}

	failCfg, err := parseFailConfig(*fail)
	if err != nil {
		log.Fatalf("parse fail flag: %v", err)
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: withMiddleware(*latency, failCfg, &orgHandler{org: org}),
	}

	log.Printf("restforce-sandbox listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("serve: %v", err)
	}
}

// orgHandler bridges incoming HTTP requests onto the mock org's routing.
type orgHandler struct {
	org *mock.Org
}

func (h *orgHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if r.Body != nil && r.ContentLength != 0 {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
			return
		}
	}

	resp, err := h.org.Do(r.Context(), r.Method, r.URL.Path, r.URL.Query(), body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for k, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func withMiddleware(latency time.Duration, fail failConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		if latency > 0 {
			time.Sleep(latency)
		}
		if fail.rate > 0 && rand.Float64() < fail.rate {
			http.Error(w, "injected failure", fail.code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseFailConfig(raw string) (failConfig, error) {
	cfg := failConfig{code: http.StatusServiceUnavailable}
	if strings.TrimSpace(raw) == "" {
		return cfg, nil
	}
	for _, part := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return cfg, fmt.Errorf("malformed fail segment %q", part)
		}
		switch strings.TrimSpace(key) {
		case "rate":
			rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil || rate < 0 || rate > 1 {
				return cfg, fmt.Errorf("invalid fail rate %q", value)
			}
			cfg.rate = rate
		case "code":
			code, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || code < 400 || code > 599 {
				return cfg, fmt.Errorf("invalid fail code %q", value)
			}
			cfg.code = code
		default:
			return cfg, fmt.Errorf("unknown fail option %q", key)
		}
	}
	return cfg, nil
}
