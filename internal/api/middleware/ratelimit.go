package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/netip"
	"regexp"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/haikunft/internal/metrics"
)

const (
	violationThreshold = 10
	violationWindow    = time.Hour
	autoBlockDuration  = 24 * time.Hour
)

// Scope selects who a limit is counted against.
type Scope int

const (
	// ScopeIP counts requests per client address.
	ScopeIP Scope = iota
	// ScopeAccount counts requests per accountId of a signed body and per
	// client address. Bodies without an account are counted per address only.
	ScopeAccount
)

// Limit is a sliding-window budget for one route.
type Limit struct {
	Requests int
	Window   time.Duration
	Scope    Scope
}

// DefaultLimits holds the per-route budgets. Generation and minting spend
// completion tokens and gas, reads do not.
var DefaultLimits = map[string]Limit{
	"/generate-ai-prompt":   {Requests: 10, Window: time.Minute, Scope: ScopeAccount},
	"/get-haiku":            {Requests: 30, Window: time.Minute, Scope: ScopeAccount},
	"/get-ai-prompt":        {Requests: 60, Window: time.Minute, Scope: ScopeAccount},
	"/set-haiku":            {Requests: 10, Window: time.Minute, Scope: ScopeAccount},
	"/generate-haiku-media": {Requests: 10, Window: time.Minute, Scope: ScopeAccount},
}

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	Whitelist        []string // addresses or CIDRs exempt from limiting
	AutoBlockEnabled bool     // block subjects after repeated violations
	Limits           map[string]Limit
}

// Subject is what a window or a block applies to.
type Subject struct {
	Kind string // "ip" or "account"
	ID   string
}

func ipSubject(ip string) Subject { return Subject{Kind: "ip", ID: ip} }

func accountSubject(id string) Subject { return Subject{Kind: "account", ID: id} }

func (s Subject) key(prefix string) string { return prefix + ":" + s.Kind + ":" + s.ID }

// accountPattern matches ledger account ids: named accounts and 64-char implicit ones.
var accountPattern = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

// RateLimiter enforces per-route sliding windows stored in Redis.
type RateLimiter struct {
	client    *redis.Client
	limits    map[string]Limit
	blocks    *Blocklist
	exempt    []netip.Prefix
	autoBlock bool
	logger    zerolog.Logger
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger, cfg RateLimiterConfig) *RateLimiter {
	limits := cfg.Limits
	if limits == nil {
		limits = DefaultLimits
	}
	rl := &RateLimiter{
		client:    client,
		limits:    limits,
		blocks:    NewBlocklist(client),
		autoBlock: cfg.AutoBlockEnabled,
		logger:    logger,
	}

	for _, entry := range cfg.Whitelist {
		prefix, err := parseExempt(entry)
		if err != nil {
			logger.Warn().Str("entry", entry).Err(err).Msg("invalid rate limit whitelist entry")
			continue
		}
		rl.exempt = append(rl.exempt, prefix)
	}
	if len(rl.exempt) > 0 {
		logger.Info().Int("entries", len(rl.exempt)).Msg("rate limit whitelist configured")
	}
	return rl
}

func parseExempt(entry string) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(entry); err == nil {
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func (rl *RateLimiter) isWhitelisted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range rl.exempt {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP is the host part of RemoteAddr, which chi's RealIP has already
// rewritten from forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// bodyAccount reads accountId from a JSON body and restores the body for the
// handler. The id is unauthenticated here; it only selects a window.
func bodyAccount(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	raw, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var body struct {
		AccountID string `json:"accountId"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	if len(body.AccountID) < 2 || len(body.AccountID) > 64 || !accountPattern.MatchString(body.AccountID) {
		return ""
	}
	return body.AccountID
}

// window is the outcome of counting one request against one subject.
type window struct {
	allowed   bool
	remaining int
	resetAt   time.Time
}

// allow records a request by s on route and reports whether it fits in limit.
// Redis failures let the request through.
func (rl *RateLimiter) allow(ctx context.Context, s Subject, route string, limit Limit) window {
	now := time.Now()
	key := s.key("ratelimit") + ":" + route

	pipe := rl.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Add(-limit.Window).UnixMilli(), 10))
	count := pipe.ZCard(ctx, key)
	oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: ulid.Make().String()})
	pipe.PExpire(ctx, key, limit.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
		return window{allowed: true, remaining: limit.Requests, resetAt: now.Add(limit.Window)}
	}

	resetAt := now.Add(limit.Window)
	if first := oldest.Val(); len(first) > 0 {
		resetAt = time.UnixMilli(int64(first[0].Score)).Add(limit.Window)
	}
	n := int(count.Val())
	return window{
		allowed:   n < limit.Requests,
		remaining: max(limit.Requests-n-1, 0),
		resetAt:   resetAt,
	}
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		route := r.URL.Path
		limit, ok := rl.limits[route]
		if !ok || r.Method != http.MethodPost {
			if rl.blocked(r, ipSubject(ip), route) {
				refuse(w, http.StatusForbidden, "Forbidden - temporarily blocked.")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		subjects := []Subject{ipSubject(ip)}
		if limit.Scope == ScopeAccount {
			if account := bodyAccount(r); account != "" {
				subjects = append(subjects, accountSubject(account))
			}
		}

		for _, s := range subjects {
			if rl.blocked(r, s, route) {
				refuse(w, http.StatusForbidden, "Forbidden - temporarily blocked.")
				return
			}
		}

		// The tightest window decides the headers.
		var tightest window
		for i, s := range subjects {
			win := rl.allow(r.Context(), s, route, limit)
			if i == 0 || win.remaining < tightest.remaining {
				tightest = win
			}
			if !win.allowed {
				rl.exceeded(r.Context(), s, route)
				tightest = win
				break
			}
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(tightest.remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(tightest.resetAt.Unix(), 10))

		if !tightest.allowed {
			retry := max(int(time.Until(tightest.resetAt).Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			refuse(w, http.StatusTooManyRequests, "Too Many Requests - try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) blocked(r *http.Request, s Subject, route string) bool {
	if !rl.blocks.Blocked(r.Context(), s) {
		return false
	}
	metrics.BlockedRequests.WithLabelValues(s.Kind).Inc()
	rl.logger.Warn().
		Str("type", "security").
		Str("event", "blocked_request").
		Str(s.Kind, s.ID).
		Str("endpoint", route).
		Msg("blocked subject attempted request")
	return true
}

func (rl *RateLimiter) exceeded(ctx context.Context, s Subject, route string) {
	metrics.RateLimitHits.WithLabelValues(route).Inc()
	rl.logger.Warn().
		Str("type", "security").
		Str("event", "rate_limit_exceeded").
		Str(s.Kind, s.ID).
		Str("endpoint", route).
		Msg("rate limit exceeded")

	if rl.autoBlock {
		rl.trackViolation(ctx, s)
	}
}

// trackViolation blocks s once it has exceeded a window violationThreshold
// times within violationWindow.
func (rl *RateLimiter) trackViolation(ctx context.Context, s Subject) {
	key := s.key("violations")
	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, violationWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn().Err(err).Str("key", key).Msg("violation tracking failed")
		return
	}

	if count := incr.Val(); count >= violationThreshold {
		if err := rl.blocks.Block(ctx, s, autoBlockDuration, "repeated rate limit violations"); err != nil {
			rl.logger.Error().Err(err).Str(s.Kind, s.ID).Msg("auto-block failed")
			return
		}
		rl.logger.Warn().
			Str("type", "security").
			Str("event", "auto_blocked").
			Str(s.Kind, s.ID).
			Int64("violations", count).
			Msg("subject auto-blocked for repeated violations")
	}
}

// Blocklist holds temporary blocks on addresses and accounts.
type Blocklist struct {
	client *redis.Client
}

// NewBlocklist creates a Blocklist.
func NewBlocklist(client *redis.Client) *Blocklist {
	return &Blocklist{client: client}
}

// Blocked reports whether s is blocked. Lookup failures count as not blocked.
func (b *Blocklist) Blocked(ctx context.Context, s Subject) bool {
	n, err := b.client.Exists(ctx, s.key("blocked")).Result()
	return err == nil && n > 0
}

// Block blocks s for d, recording reason.
func (b *Blocklist) Block(ctx context.Context, s Subject, d time.Duration, reason string) error {
	return b.client.Set(ctx, s.key("blocked"), reason, d).Err()
}

// Unblock lifts a block on s.
func (b *Blocklist) Unblock(ctx context.Context, s Subject) error {
	return b.client.Del(ctx, s.key("blocked")).Err()
}
