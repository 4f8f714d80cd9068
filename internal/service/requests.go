package service

import (
	"context"
	"fmt"
	"time"

	"repair-tracker/internal/access"
	"repair-tracker/internal/apperr"
	"repair-tracker/internal/lifecycle"
	"repair-tracker/internal/models"
	"repair-tracker/internal/store"

	log "github.com/sirupsen/logrus"
)

type RequestService struct {
	store store.Store
	now   func() time.Time
}

func NewRequestService(s store.Store) *RequestService {
	return &RequestService{store: s, now: time.Now}
}

type CreateRequestInput struct {
	// ClientID можно не указывать, если заявку создаёт сам клиент.
	ClientID        uint   `json:"client_id"`
	EquipmentTypeID uint   `json:"equipment_type_id"`
	EquipmentType   string `json:"equipment_type"`
	Model           string `json:"model"`
	Description     string `json:"description"`
	SerialNumber    string `json:"serial_number"`
}

type CompleteInput struct {
	// StatusID == 0 означает "Выполнена".
	StatusID    uint    `json:"status_id"`
	Cost        float64 `json:"cost"`
	RepairParts string  `json:"repair_parts"`
}

type AssignInput struct {
	MasterID *uint `json:"master_id"`
	// Override подтверждает замену или снятие уже назначенного мастера.
	Override bool `json:"override"`
}

func (s *RequestService) logger(p models.Principal, requestID uint, action string) *log.Entry {
	return log.WithFields(log.Fields{
		"request_id": requestID,
		"user_id":    p.UserID,
		"action":     action,
	})
}

func (s *RequestService) load(ctx context.Context, id uint) (models.Request, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return models.Request{}, storeErr(err, fmt.Sprintf("request %d", id))
	}
	return req, nil
}

func (s *RequestService) statusByCode(ctx context.Context, code models.StatusCode) (models.Status, error) {
	st, err := s.store.StatusByCode(ctx, code)
	if err != nil {
		return models.Status{}, storeErr(err, "status "+code.Name())
	}
	return st, nil
}

func (s *RequestService) statusByID(ctx context.Context, id uint) (models.Status, error) {
	st, err := s.store.GetStatus(ctx, id)
	if err != nil {
		return models.Status{}, storeErr(err, fmt.Sprintf("status %d", id))
	}
	if st.Code() == models.StatusUnknown {
		return models.Status{}, apperr.Validation(apperr.ReasonInvalidTarget,
			fmt.Sprintf("status %q is not part of the lifecycle", st.Name))
	}
	return st, nil
}

func (s *RequestService) Create(ctx context.Context, p models.Principal, in CreateRequestInput) (models.RequestView, error) {
	if err := requireRole(p, access.CreateRequest); err != nil {
		return models.RequestView{}, err
	}
	if in.ClientID == 0 && p.Role == models.RoleClient {
		in.ClientID = p.UserID
	}
	if in.ClientID == 0 {
		return models.RequestView{}, apperr.Validation(apperr.ReasonEmptyField, "client must be specified")
	}
	if err := authorize(p, access.CreateRequest, access.Facts{ClientID: in.ClientID, Known: true}); err != nil {
		return models.RequestView{}, err
	}

	var err error
	if in.Model, err = required("model", in.Model); err != nil {
		return models.RequestView{}, err
	}
	if in.Description, err = required("description", in.Description); err != nil {
		return models.RequestView{}, err
	}

	if _, err := s.store.GetClient(ctx, in.ClientID); err != nil {
		return models.RequestView{}, storeErr(err, fmt.Sprintf("client %d", in.ClientID))
	}
	equipment, err := s.equipmentType(ctx, in)
	if err != nil {
		return models.RequestView{}, err
	}
	status, err := s.statusByCode(ctx, models.StatusNew)
	if err != nil {
		return models.RequestView{}, err
	}

	id, err := s.store.InsertRequest(ctx, store.CreateRequestInput{
		ClientID:        in.ClientID,
		EquipmentTypeID: equipment.ID,
		Model:           in.Model,
		Description:     in.Description,
		SerialNumber:    optional(in.SerialNumber),
		StatusID:        status.ID,
		CreatedAt:       s.now(),
		ActorID:         p.UserID,
	})
	if err != nil {
		return models.RequestView{}, storeErr(err, "request")
	}

	s.logger(p, id, "create").WithField("client_id", in.ClientID).Info("request created")
	view, err := s.store.GetRequestView(ctx, id)
	return view, storeErr(err, fmt.Sprintf("request %d", id))
}

// тип оборудования по id или по имени, новое имя добавляется в справочник
func (s *RequestService) equipmentType(ctx context.Context, in CreateRequestInput) (models.EquipmentType, error) {
	if in.EquipmentTypeID != 0 {
		et, err := s.store.GetEquipmentType(ctx, in.EquipmentTypeID)
		return et, storeErr(err, fmt.Sprintf("equipment type %d", in.EquipmentTypeID))
	}
	name, err := required("equipment type", in.EquipmentType)
	if err != nil {
		return models.EquipmentType{}, err
	}
	et, err := s.store.EnsureEquipmentType(ctx, name)
	return et, storeErr(err, "equipment type")
}

func (s *RequestService) Get(ctx context.Context, p models.Principal, id uint) (models.RequestView, error) {
	if _, err := s.visible(ctx, p, id); err != nil {
		return models.RequestView{}, err
	}
	view, err := s.store.GetRequestView(ctx, id)
	return view, storeErr(err, fmt.Sprintf("request %d", id))
}

// visible читает заявку и проверяет, что вызывающему её можно видеть.
func (s *RequestService) visible(ctx context.Context, p models.Principal, id uint) (models.Request, error) {
	if err := requireRole(p, access.ViewRequest); err != nil {
		return models.Request{}, err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if err := authorize(p, access.ViewRequest, access.RequestFacts(req)); err != nil {
		return models.Request{}, err
	}
	return req, nil
}

// List возвращает видимые вызывающему заявки, при statusID != 0 только с этим статусом.
func (s *RequestService) List(ctx context.Context, p models.Principal, statusID uint) ([]models.RequestView, error) {
	if err := requireRole(p, access.ViewRequest); err != nil {
		return nil, err
	}
	scope := access.ScopeFor(p)
	filter := store.RequestFilter{ClientID: scope.ClientID, MasterID: scope.MasterID}
	if statusID != 0 {
		filter.StatusID = &statusID
	}
	views, err := s.store.ListRequests(ctx, filter)
	return views, storeErr(err, "request")
}

func (s *RequestService) EditDescription(ctx context.Context, p models.Principal, id uint, text string) error {
	if err := requireRole(p, access.EditDescription); err != nil {
		return err
	}
	text, err := required("description", text)
	if err != nil {
		return err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(p, access.EditDescription, access.RequestFacts(req)); err != nil {
		return err
	}
	if err := lifecycle.CheckEditDescription(req); err != nil {
		return err
	}

	if err := s.store.UpdateRequestDescription(ctx, id, store.ExpectOf(req), text, p.UserID); err != nil {
		return storeErr(err, fmt.Sprintf("request %d", id))
	}
	s.logger(p, id, "edit_description").Info("description updated")
	return nil
}

func (s *RequestService) ChangeStatus(ctx context.Context, p models.Principal, id, statusID uint) error {
	if err := requireRole(p, access.ChangeStatus); err != nil {
		return err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(p, access.ChangeStatus, access.RequestFacts(req)); err != nil {
		return err
	}
	if err := lifecycle.CheckOpen(req); err != nil {
		return err
	}
	if statusID == 0 {
		return apperr.Validation(apperr.ReasonEmptyField, "status_id must not be empty")
	}
	target, err := s.statusByID(ctx, statusID)
	if err != nil {
		return err
	}
	code := target.Code()
	if err := lifecycle.CheckChangeStatus(req, code); err != nil {
		return err
	}

	update := store.StatusUpdate{
		StatusID:    target.ID,
		Completed:   code == models.StatusCompleted,
		StartWork:   code == models.StatusInProgress,
		ClearMaster: lifecycle.ClearsMaster(code),
		ActorID:     p.UserID,
		At:          s.now(),
	}
	if err := s.store.UpdateRequestStatus(ctx, id, store.ExpectOf(req), update); err != nil {
		return storeErr(err, fmt.Sprintf("request %d", id))
	}

	s.logger(p, id, "change_status").
		WithFields(log.Fields{"from": req.StatusCode(), "to": code}).
		Info("request status changed")
	return nil
}

// Complete закрывает заявку выбранным статусом (по умолчанию "Выполнена",
// допускается и "Отменена").
func (s *RequestService) Complete(ctx context.Context, p models.Principal, id uint, in CompleteInput) error {
	if err := requireRole(p, access.CompleteRequest); err != nil {
		return err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(p, access.CompleteRequest, access.RequestFacts(req)); err != nil {
		return err
	}
	if err := lifecycle.CheckOpen(req); err != nil {
		return err
	}

	var target models.Status
	if in.StatusID == 0 {
		target, err = s.statusByCode(ctx, models.StatusCompleted)
	} else {
		target, err = s.statusByID(ctx, in.StatusID)
	}
	if err != nil {
		return err
	}
	code := target.Code()
	if err := lifecycle.CheckComplete(req, code, in.Cost); err != nil {
		return err
	}

	input := store.CompleteInput{
		StatusID:    target.ID,
		Completed:   code == models.StatusCompleted,
		RepairParts: optional(in.RepairParts),
		ClearMaster: lifecycle.ClearsMaster(code),
		ActorID:     p.UserID,
		At:          s.now(),
	}
	if code == models.StatusCompleted {
		cost := in.Cost
		input.Cost = &cost
	}
	if err := s.store.CompleteRequest(ctx, id, store.ExpectOf(req), input); err != nil {
		return storeErr(err, fmt.Sprintf("request %d", id))
	}

	s.logger(p, id, "complete").
		WithFields(log.Fields{"status": code, "cost": in.Cost}).
		Info("request closed")
	return nil
}

func (s *RequestService) AddComment(ctx context.Context, p models.Principal, id uint, message string) (models.Comment, error) {
	if err := requireRole(p, access.CommentRequest); err != nil {
		return models.Comment{}, err
	}
	message, err := required("message", message)
	if err != nil {
		return models.Comment{}, err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	if err := authorize(p, access.CommentRequest, access.RequestFacts(req)); err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		Message:   message,
		AuthorID:  p.UserID,
		RequestID: id,
		CreatedAt: s.now(),
	}
	if p.Role == models.RoleMaster {
		masterID := p.UserID
		comment.MasterID = &masterID
	}
	comment.ID, err = s.store.InsertComment(ctx, comment)
	if err != nil {
		return models.Comment{}, storeErr(err, "comment")
	}
	return comment, nil
}

func (s *RequestService) Comments(ctx context.Context, p models.Principal, id uint) ([]models.Comment, error) {
	if _, err := s.visible(ctx, p, id); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, id)
	return comments, storeErr(err, "comment")
}

// History: журнал изменений заявки, от старых к новым.
func (s *RequestService) History(ctx context.Context, p models.Principal, id uint) ([]models.AuditLog, error) {
	if _, err := s.visible(ctx, p, id); err != nil {
		return nil, err
	}
	logs, err := s.store.ListAudit(ctx, "request", id)
	return logs, storeErr(err, "audit log")
}

func (s *RequestService) Statuses(ctx context.Context) ([]models.Status, error) {
	statuses, err := s.store.ListStatuses(ctx)
	return statuses, storeErr(err, "status")
}

func (s *RequestService) EquipmentTypes(ctx context.Context) ([]models.EquipmentType, error) {
	types, err := s.store.ListEquipmentTypes(ctx)
	return types, storeErr(err, "equipment type")
}

func (s *RequestService) Clients(ctx context.Context, p models.Principal) ([]models.Client, error) {
	if err := requireRole(p, access.ViewAllClientsAndMasters); err != nil {
		return nil, err
	}
	clients, err := s.store.ListClients(ctx)
	return clients, storeErr(err, "client")
}

func (s *RequestService) Masters(ctx context.Context, p models.Principal) ([]models.Master, error) {
	if err := requireRole(p, access.ViewAllClientsAndMasters); err != nil {
		return nil, err
	}
	masters, err := s.store.ListMasters(ctx)
	return masters, storeErr(err, "master")
}
