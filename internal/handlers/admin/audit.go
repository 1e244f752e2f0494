package admin

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/utils"
)

// MaxAuditLimit plafond du paramètre limit
const MaxAuditLimit = 500

type AuditHandler struct {
	auditor *utils.Auditor
	now     func() time.Time
}

func NewAuditHandler(auditor *utils.Auditor) *AuditHandler {
	return &AuditHandler{auditor: auditor, now: time.Now}
}

func auditFilter(c *gin.Context) func(models.AuditLog) bool {
	userID := c.Query("user_id")
	action := c.Query("action")
	resource := c.Query("resource")
	success := c.Query("success")
	successBool, _ := strconv.ParseBool(success)

	return func(e models.AuditLog) bool {
		if userID != "" && e.UserID != userID {
			return false
		}
		if action != "" && e.Action != action {
			return false
		}
		if resource != "" && e.Resource != resource {
			return false
		}
		if success != "" && e.Success != successBool {
			return false
		}
		return true
	}
}

// GetAuditLogs GET /api/admin/audit: entrées les plus récentes d'abord, avec filtres
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}

	// Les filtres s'appliquent sur la fenêtre maximale, puis on tronque
	entries, err := h.auditor.Recent(MaxAuditLimit)
	if err != nil {
		log.Printf("❌ Erreur récupération logs audit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	keep := auditFilter(c)
	logs := []models.AuditLog{}
	for _, e := range entries {
		if len(logs) == limit {
			break
		}
		if keep(e) {
			logs = append(logs, e)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
		"filters": gin.H{
			"user_id":  c.Query("user_id"),
			"action":   c.Query("action"),
			"resource": c.Query("resource"),
			"success":  c.Query("success"),
			"limit":    limit,
		},
	})
}

type actionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// GetAuditStats GET /api/admin/audit/stats: compteurs sur la fenêtre récente
func (h *AuditHandler) GetAuditStats(c *gin.Context) {
	entries, err := h.auditor.Recent(MaxAuditLimit)
	if err != nil {
		log.Printf("❌ Erreur récupération logs audit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	yesterday := h.now().Add(-24 * time.Hour)
	var successful, failed, recent int
	byAction := map[string]int{}
	for _, e := range entries {
		if e.Success {
			successful++
		} else {
			failed++
		}
		if e.Timestamp.After(yesterday) {
			recent++
		}
		byAction[e.Action]++
	}

	top := make([]actionCount, 0, len(byAction))
	for a, n := range byAction {
		top = append(top, actionCount{Action: a, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Action < top[j].Action
	})
	if len(top) > 10 {
		top = top[:10]
	}

	c.JSON(http.StatusOK, gin.H{
		"total_logs":         len(entries),
		"successful_actions": successful,
		"failed_actions":     failed,
		"recent_actions_24h": recent,
		"top_actions":        top,
	})
}
