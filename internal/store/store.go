package store

import (
	"context"
	"time"

	"repair-tracker/internal/models"
)

// Expect: состояние заявки на момент проверки. Изменение применяется, только
// если строка всё ещё совпадает, иначе ErrConflict.
type Expect struct {
	StatusID uint
	MasterID *uint
}

func ExpectOf(r models.Request) Expect {
	return Expect{StatusID: r.StatusID, MasterID: r.MasterID}
}

type CreateRequestInput struct {
	ClientID        uint
	EquipmentTypeID uint
	Model           string
	Description     string
	SerialNumber    *string
	StatusID        uint
	CreatedAt       time.Time
	ActorID         uint
}

type RequestFilter struct {
	ClientID *uint
	// MasterID: заявки этого мастера и неназначенные.
	MasterID *uint
	StatusID *uint
}

type StatusUpdate struct {
	StatusID uint
	// Проставить date_completed (новый статус "Выполнена").
	Completed bool
	// Проставить date_start_work, если оно ещё пустое.
	StartWork   bool
	ClearMaster bool
	ActorID     uint
	At          time.Time
}

type MasterUpdate struct {
	MasterID  *uint
	StatusID  uint
	StartWork bool
	ActorID   uint
	At        time.Time
}

type CompleteInput struct {
	StatusID    uint
	Completed   bool
	Cost        *float64
	RepairParts *string
	ClearMaster bool
	ActorID     uint
	At          time.Time
}

type RegisterInput struct {
	Login        string
	PasswordHash string
	FullName     string
	Phone        string
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type MasterLoad struct {
	MasterID uint   `json:"master_id"`
	Master   string `json:"master"`
	Count    int64  `json:"count"`
}

type Duration struct {
	RequestID     uint
	DateCreated   time.Time
	DateCompleted time.Time
}

type PerformanceRow struct {
	MasterID      uint       `json:"master_id"`
	Master        string     `json:"master"`
	RequestID     uint       `json:"request_id"`
	Client        string     `json:"client"`
	Equipment     string     `json:"equipment"`
	Status        string     `json:"status"`
	DateCreated   time.Time  `json:"date_created"`
	DateStartWork *time.Time `json:"date_start_work,omitempty"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`
	Cost          *float64   `json:"cost,omitempty"`
}

type RequestStore interface {
	GetRequest(ctx context.Context, id uint) (models.Request, error)
	GetRequestView(ctx context.Context, id uint) (models.RequestView, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]models.RequestView, error)
	InsertRequest(ctx context.Context, input CreateRequestInput) (uint, error)
	UpdateRequestStatus(ctx context.Context, id uint, expect Expect, update StatusUpdate) error
	UpdateRequestMaster(ctx context.Context, id uint, expect Expect, update MasterUpdate) error
	CompleteRequest(ctx context.Context, id uint, expect Expect, input CompleteInput) error
	UpdateRequestDescription(ctx context.Context, id uint, expect Expect, text string, actorID uint) error
	InsertComment(ctx context.Context, comment models.Comment) (uint, error)
	ListComments(ctx context.Context, requestID uint) ([]models.Comment, error)
	ListAudit(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error)
}

type ReferenceStore interface {
	GetStatus(ctx context.Context, id uint) (models.Status, error)
	StatusByCode(ctx context.Context, code models.StatusCode) (models.Status, error)
	ListStatuses(ctx context.Context) ([]models.Status, error)
	GetEquipmentType(ctx context.Context, id uint) (models.EquipmentType, error)
	EnsureEquipmentType(ctx context.Context, name string) (models.EquipmentType, error)
	ListEquipmentTypes(ctx context.Context) ([]models.EquipmentType, error)
	GetMaster(ctx context.Context, id uint) (models.Master, error)
	ListMasters(ctx context.Context) ([]models.Master, error)
	GetClient(ctx context.Context, id uint) (models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
}

type UserStore interface {
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
	GetUser(ctx context.Context, id uint) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// InsertUserAndClient создаёт пользователя (роль "Клиент") и строку клиента в одной транзакции.
	InsertUserAndClient(ctx context.Context, input RegisterInput) (uint, error)
	UpdateUserRole(ctx context.Context, id uint, role models.UserRole, actorID uint) error
}

type ReportStore interface {
	AggregateStatusCounts(ctx context.Context) ([]StatusCount, error)
	AggregateMasterLoad(ctx context.Context) ([]MasterLoad, error)
	CompletedDurations(ctx context.Context) ([]Duration, error)
	AggregatePerformance(ctx context.Context) ([]PerformanceRow, error)
}

type Store interface {
	RequestStore
	ReferenceStore
	UserStore
	ReportStore
}
