package utils

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"electrocart_back_end/internal/models"
)

// AuditSink destination d'écriture des entrées d'audit
type AuditSink interface {
	Write(ctx context.Context, entry models.AuditLog) error
}

// AuditReader relit les entrées les plus récentes
type AuditReader interface {
	Recent(limit int) ([]models.AuditLog, error)
}

// Auditor écrit chaque entrée dans tous les sinks configurés (fichier local, Scylla)
type Auditor struct {
	sinks []AuditSink
	now   func() time.Time
}

func NewAuditor(sinks ...AuditSink) *Auditor {
	return &Auditor{sinks: sinks, now: time.Now}
}

// Record écrit l'entrée de façon synchrone. Le premier sink en erreur fait échouer l'appel,
// les suivants sont tout de même tentés.
func (a *Auditor) Record(ctx context.Context, entry models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = a.now().UTC()
	}
	var firstErr error
	for _, sink := range a.sinks {
		if err := sink.Write(ctx, entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit (%T): %v", sink, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// LogAction enregistre une action réussie en arrière-plan
func (a *Auditor) LogAction(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}) {
	entry := entryFromContext(c, action, resource, resourceID)
	entry.Success = true
	entry.OldValue = marshalValue(oldValue)
	entry.NewValue = marshalValue(newValue)
	go a.Record(context.Background(), entry)
}

// LogFailedAction enregistre une action refusée ou échouée en arrière-plan
func (a *Auditor) LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	entry := entryFromContext(c, action, resource, resourceID)
	entry.ErrorMsg = errorMsg
	go a.Record(context.Background(), entry)
}

// Recent interroge le premier sink capable de relire l'historique
func (a *Auditor) Recent(limit int) ([]models.AuditLog, error) {
	for _, sink := range a.sinks {
		if r, ok := sink.(AuditReader); ok {
			return r.Recent(limit)
		}
	}
	return []models.AuditLog{}, nil
}

func entryFromContext(c *gin.Context, action, resource, resourceID string) models.AuditLog {
	return models.AuditLog{
		UserID:     c.GetString("user_id"),
		UserEmail:  c.GetString("email"),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	}
}

func marshalValue(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// ---------- Fichier local (append-only, une entrée JSON par ligne) ----------

type FileAuditSink struct {
	path string
	mu   sync.Mutex
}

func NewFileAuditSink(path string) (*FileAuditSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("création du dossier d'audit: %w", err)
	}
	return &FileAuditSink{path: path}, nil
}

func (s *FileAuditSink) Write(_ context.Context, entry models.AuditLog) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// Recent renvoie au plus limit entrées, la plus récente en premier
func (s *FileAuditSink) Recent(limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return []models.AuditLog{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var all []models.AuditLog
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry models.AuditLog
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		all = append(all, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	out := make([]models.AuditLog, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// ---------- ScyllaDB (copie durable optionnelle) ----------

type ScyllaAuditSink struct {
	session *gocql.Session
}

const auditTableCQL = `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id uuid PRIMARY KEY,
		user_id text, user_email text, action text, resource text, resource_id text,
		target_id text, old_value text, new_value text, ip_address text, user_agent text,
		success boolean, error_msg text, timestamp timestamp
	)`

func NewScyllaAuditSink(session *gocql.Session) (*ScyllaAuditSink, error) {
	if err := session.Query(auditTableCQL).Exec(); err != nil {
		return nil, fmt.Errorf("création table audit_logs: %w", err)
	}
	return &ScyllaAuditSink{session: session}, nil
}

func (s *ScyllaAuditSink) Write(ctx context.Context, e models.AuditLog) error {
	id, err := gocql.ParseUUID(e.ID)
	if err != nil {
		id = gocql.TimeUUID()
	}
	query := `
		INSERT INTO audit_logs (
			id, user_id, user_email, action, resource, resource_id, target_id,
			old_value, new_value, ip_address, user_agent, success, error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return s.session.Query(query,
		id, e.UserID, e.UserEmail, e.Action, e.Resource, e.ResourceID, e.TargetID,
		e.OldValue, e.NewValue, e.IPAddress, e.UserAgent, e.Success, e.ErrorMsg, e.Timestamp,
	).WithContext(ctx).Exec()
}

// Actions d'audit
const (
	ACTION_PRODUCT_CREATE = "product.create"
	ACTION_PRODUCT_UPDATE = "product.update"
	ACTION_PRODUCT_DELETE = "product.delete"

	ACTION_ORDER_CREATE_ON_BEHALF = "order.create_on_behalf"
	ACTION_ORDER_CREATE_BLOCKED   = "order.create_blocked"
	ACTION_ORDER_UPDATE           = "order.update"
)

// Resources d'audit
const (
	RESOURCE_PRODUCT = "product"
	RESOURCE_ORDER   = "order"
)
