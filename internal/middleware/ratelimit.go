package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // API全般のバーストサイズ
	SyncRate        rate.Limit    // 手動同期のレート（req/sec）。10/60
	SyncBurst       int           // 手動同期のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 要件: API全般 120 req/min/IP、手動同期 10 req/min/IP
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:    120,
		SyncRate:        rate.Limit(10.0 / 60.0), // ~0.167 req/sec
		SyncBurst:       10,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
// API全般のレート制限と手動同期のレート制限の2種類を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*clientLimiter

	syncMu       sync.RWMutex
	syncLimiters map[string]*clientLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*clientLimiter),
		syncLimiters:    make(map[string]*clientLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
// クライアントIPをキーとして制限を適用する。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			limiter := rl.getOrCreateGeneralLimiter(ip)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SyncTriggerMiddleware は手動同期専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) SyncTriggerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			limiter := rl.getOrCreateSyncLimiter(ip)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.SyncRate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("limit_type", "sync_trigger"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// SyncLimiterCount は現在管理されている手動同期リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) SyncLimiterCount() int {
	rl.syncMu.RLock()
	defer rl.syncMu.RUnlock()
	return len(rl.syncLimiters)
}

// getOrCreateGeneralLimiter はクライアントのAPI全般リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateGeneralLimiter(ip string) *rate.Limiter {
	rl.generalMu.RLock()
	cl, exists := rl.generalLimiters[ip]
	rl.generalMu.RUnlock()

	if exists {
		rl.generalMu.Lock()
		cl.lastAccess = time.Now()
		rl.generalMu.Unlock()
		return cl.limiter
	}

	rl.generalMu.Lock()
	defer rl.generalMu.Unlock()

	// ダブルチェック
	if cl, exists := rl.generalLimiters[ip]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.GeneralRate, rl.config.GeneralBurst)
	rl.generalLimiters[ip] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// getOrCreateSyncLimiter はクライアントの手動同期リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateSyncLimiter(ip string) *rate.Limiter {
	rl.syncMu.RLock()
	cl, exists := rl.syncLimiters[ip]
	rl.syncMu.RUnlock()

	if exists {
		rl.syncMu.Lock()
		cl.lastAccess = time.Now()
		rl.syncMu.Unlock()
		return cl.limiter
	}

	rl.syncMu.Lock()
	defer rl.syncMu.Unlock()

	// ダブルチェック
	if cl, exists := rl.syncLimiters[ip]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.SyncRate, rl.config.SyncBurst)
	rl.syncLimiters[ip] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.generalMu.Lock()
	for ip, cl := range rl.generalLimiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.generalLimiters, ip)
		}
	}
	rl.generalMu.Unlock()

	rl.syncMu.Lock()
	for ip, cl := range rl.syncLimiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.syncLimiters, ip)
		}
	}
	rl.syncMu.Unlock()
}

// clientIP はリクエストからクライアントIPを取り出す。
// リバースプロキシ配下ではX-Forwarded-Forの先頭エントリを優先する。
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		ip := strings.TrimSpace(parts[0])
		if ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "RATE_LIMITED",
		"message":  "Too many requests. Please try again later.",
		"category": "system",
		"action":   "Please wait and retry after the specified time.",
	})
}
