package reqaudit

import (
	"github.com/reqforge/reqforge/internal/requirements/storage"
)

// closableAuditStore extends AuditStore with a Close method for resource cleanup.
type closableAuditStore interface {
	storage.AuditStore
	Close() error
}
