package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/cache"
)

const (
	// Limites par endpoint
	LoginMaxAttempts          = 5
	RegisterMaxAttempts       = 3
	ForgotPasswordMaxAttempts = 3
	APIMaxRequests            = 100 // Par minute pour les endpoints généraux
	SearchMaxRequests         = 30

	// Durées de cooldown
	LoginCooldown          = 15 * time.Minute
	RegisterCooldown       = 30 * time.Minute
	ForgotPasswordCooldown = 10 * time.Minute
	APICooldown            = 1 * time.Minute
)

// RateLimiter s'appuie sur les compteurs Redis; sans Redis, chaque limiteur laisse passer.
type RateLimiter struct {
	counters *cache.Counters
}

func NewRateLimiter(counters *cache.Counters) *RateLimiter {
	return &RateLimiter{counters: counters}
}

func (rl *RateLimiter) enabled() bool { return rl != nil && rl.counters != nil }

func tooMany(c *gin.Context, msg string, retry time.Duration) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"message":     msg,
		"retry_after": int(retry.Seconds()),
	})
}

// peekEmail lit l'email du corps JSON sans le consommer
func peekEmail(c *gin.Context) string {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var input struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(bodyBytes, &input) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(input.Email))
}

// attemptLimit bloque `subject` pendant cooldown après max appels comptés.
// count décide, d'après le statut de réponse, si l'appel compte.
func (rl *RateLimiter) attemptLimit(prefix string, max int64, cooldown time.Duration, msg string,
	subject func(*gin.Context) string, count func(status int) bool, reset func(status int) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.enabled() {
			c.Next()
			return
		}
		key := subject(c)
		if key == "" {
			c.Next()
			return
		}

		ctx := context.Background()
		attemptsKey := prefix + "_attempts:" + key
		cooldownKey := prefix + "_cooldown:" + key

		if ttl := rl.counters.Cooldown(ctx, cooldownKey); ttl > 0 {
			tooMany(c, fmt.Sprintf("%s. Try again in %d minutes", msg, int(ttl.Minutes())+1), ttl)
			return
		}

		attempts, err := rl.counters.Get(ctx, attemptsKey)
		if err != nil {
			log.Printf("⚠️ Rate limit %s indisponible: %v", prefix, err)
			c.Next()
			return
		}
		if attempts >= max {
			if err := rl.counters.StartCooldown(ctx, cooldownKey, cooldown); err != nil {
				log.Printf("⚠️ Rate limit %s: cooldown non enregistré: %v", prefix, err)
			}
			if err := rl.counters.Reset(ctx, attemptsKey); err != nil {
				log.Printf("⚠️ Rate limit %s: remise à zéro échouée: %v", prefix, err)
			}
			tooMany(c, fmt.Sprintf("%s. Try again in %d minutes", msg, int(cooldown.Minutes())), cooldown)
			return
		}

		c.Next()

		status := c.Writer.Status()
		switch {
		case count(status):
			if _, err := rl.counters.Hit(ctx, attemptsKey, cooldown); err != nil {
				log.Printf("⚠️ Rate limit %s: tentative non comptée: %v", prefix, err)
			}
		case reset != nil && reset(status):
			if err := rl.counters.Reset(ctx, attemptsKey, cooldownKey); err != nil {
				log.Printf("⚠️ Rate limit %s: remise à zéro échouée: %v", prefix, err)
			}
		}
	}
}

// LoginRateLimit limite les échecs de connexion par email
func (rl *RateLimiter) LoginRateLimit() gin.HandlerFunc {
	return rl.attemptLimit("login", LoginMaxAttempts, LoginCooldown, "Too many failed login attempts",
		peekEmail,
		func(s int) bool { return s == http.StatusBadRequest || s == http.StatusUnauthorized },
		func(s int) bool { return s == http.StatusOK },
	)
}

// RegisterRateLimit limite les inscriptions par IP
func (rl *RateLimiter) RegisterRateLimit() gin.HandlerFunc {
	return rl.attemptLimit("register", RegisterMaxAttempts, RegisterCooldown, "Too many registrations",
		func(c *gin.Context) string { return c.ClientIP() },
		func(s int) bool { return s == http.StatusOK || s == http.StatusCreated },
		nil,
	)
}

// ForgotPasswordRateLimit limite les demandes de reset par email
func (rl *RateLimiter) ForgotPasswordRateLimit() gin.HandlerFunc {
	return rl.attemptLimit("forgot_password", ForgotPasswordMaxAttempts, ForgotPasswordCooldown, "Too many reset requests",
		peekEmail,
		func(s int) bool { return s == http.StatusOK },
		nil,
	)
}

func (rl *RateLimiter) window(prefix string, max int64, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.enabled() {
			c.Next()
			return
		}
		ctx := context.Background()
		n, err := rl.counters.Hit(ctx, prefix+":"+c.ClientIP(), APICooldown)
		if err != nil {
			c.Next()
			return
		}
		if n > max {
			tooMany(c, msg, APICooldown)
			return
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-n))
		c.Next()
	}
}

// APIRateLimit limite le nombre de requêtes par IP (général)
func (rl *RateLimiter) APIRateLimit() gin.HandlerFunc {
	return rl.window("api_requests", APIMaxRequests, "Too many requests. Try again in 1 minute")
}

// SearchRateLimit limite les recherches (anti-spam)
func (rl *RateLimiter) SearchRateLimit() gin.HandlerFunc {
	return rl.window("search_requests", SearchMaxRequests, "Too many searches. Try again in 1 minute")
}
