package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"repair-tracker/internal/models"
	"repair-tracker/internal/store"
)

// fakeStore: хранилище в памяти с той же семантикой сравнения-и-записи, что и у БД.
type fakeStore struct {
	mu sync.Mutex

	nextID    uint
	users     map[uint]models.User
	clients   map[uint]models.Client
	masters   map[uint]models.Master
	equipment map[uint]models.EquipmentType
	statuses  []models.Status
	requests  map[uint]models.Request
	comments  []models.Comment
	audit     []models.AuditLog

	// beforeWrite вызывается перед каждой защищённой записью; тесты гонок меняют здесь строку.
	beforeWrite func(id uint)
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	f := &fakeStore{
		nextID:    100,
		users:     map[uint]models.User{},
		clients:   map[uint]models.Client{},
		masters:   map[uint]models.Master{},
		equipment: map[uint]models.EquipmentType{},
		requests:  map[uint]models.Request{},
	}
	for i, code := range models.AllStatuses {
		f.statuses = append(f.statuses, models.Status{ID: uint(i + 1), Name: code.Name()})
	}
	return f
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) statusID(code models.StatusCode) uint {
	for _, s := range f.statuses {
		if s.Code() == code {
			return s.ID
		}
	}
	return 0
}

func (f *fakeStore) addUser(id uint, role models.UserRole, name string) models.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := models.User{ID: id, Login: name, Role: role, FullName: name}
	f.users[id] = u
	switch role {
	case models.RoleClient:
		f.clients[id] = models.Client{ID: id, FullName: name}
	case models.RoleMaster:
		f.masters[id] = models.Master{ID: id, FullName: name}
	}
	return u.Principal()
}

func (f *fakeStore) addRequest(clientID uint, code models.StatusCode, masterID *uint) uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.requests[id] = models.Request{
		ID:          id,
		ClientID:    clientID,
		Model:       "model",
		Description: "description",
		StatusID:    f.statusID(code),
		MasterID:    masterID,
		DateCreated: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	return id
}

func (f *fakeStore) request(id uint) models.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.withStatus(f.requests[id])
}

func (f *fakeStore) withStatus(r models.Request) models.Request {
	for _, s := range f.statuses {
		if s.ID == r.StatusID {
			r.Status = s
		}
	}
	return r
}

func sameMaster(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// guarded возвращает заявку для изменения, если она совпадает с ожидаемой.
func (f *fakeStore) guarded(id uint, expect store.Expect) (models.Request, error) {
	if f.beforeWrite != nil {
		hook := f.beforeWrite
		f.beforeWrite = nil
		f.mu.Unlock()
		hook(id)
		f.mu.Lock()
	}
	r, ok := f.requests[id]
	if !ok {
		return r, store.ErrNotFound
	}
	if r.StatusID != expect.StatusID || !sameMaster(r.MasterID, expect.MasterID) {
		return r, store.ErrConflict
	}
	return r, nil
}

func (f *fakeStore) log(actor uint, entityID uint, action string) {
	f.audit = append(f.audit, models.AuditLog{
		ID: f.id(), UserID: actor, Entity: "request", EntityID: entityID, Action: action,
	})
}

func (f *fakeStore) GetRequest(_ context.Context, id uint) (models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return r, store.ErrNotFound
	}
	return f.withStatus(r), nil
}

func (f *fakeStore) view(r models.Request) models.RequestView {
	r = f.withStatus(r)
	v := models.RequestView{
		ID: r.ID, ClientID: r.ClientID, ClientName: f.clients[r.ClientID].FullName,
		EquipmentType: f.equipment[r.EquipmentTypeID].Name, Model: r.Model,
		SerialNumber: r.SerialNumber, Description: r.Description,
		StatusID: r.StatusID, Status: r.Status.Name, MasterID: r.MasterID,
		DateCreated: r.DateCreated, DateStartWork: r.DateStartWork,
		DateCompleted: r.DateCompleted, Cost: r.Cost, RepairParts: r.RepairParts,
	}
	if r.MasterID != nil {
		name := f.masters[*r.MasterID].FullName
		v.MasterName = &name
	}
	return v
}

func (f *fakeStore) GetRequestView(_ context.Context, id uint) (models.RequestView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return models.RequestView{}, store.ErrNotFound
	}
	return f.view(r), nil
}

func (f *fakeStore) ListRequests(_ context.Context, filter store.RequestFilter) ([]models.RequestView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	views := []models.RequestView{}
	for _, r := range f.requests {
		if filter.ClientID != nil && r.ClientID != *filter.ClientID {
			continue
		}
		if filter.MasterID != nil && r.MasterID != nil && *r.MasterID != *filter.MasterID {
			continue
		}
		if filter.StatusID != nil && r.StatusID != *filter.StatusID {
			continue
		}
		views = append(views, f.view(r))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views, nil
}

func (f *fakeStore) InsertRequest(_ context.Context, in store.CreateRequestInput) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[in.ClientID]; !ok {
		return 0, store.ErrConstraint
	}
	id := f.id()
	f.requests[id] = models.Request{
		ID: id, ClientID: in.ClientID, EquipmentTypeID: in.EquipmentTypeID,
		Model: in.Model, Description: in.Description, SerialNumber: in.SerialNumber,
		StatusID: in.StatusID, DateCreated: in.CreatedAt,
	}
	f.log(in.ActorID, id, "create")
	return id, nil
}

func (f *fakeStore) UpdateRequestStatus(_ context.Context, id uint, expect store.Expect, u store.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.guarded(id, expect)
	if err != nil {
		return err
	}
	r.StatusID = u.StatusID
	if u.Completed {
		at := u.At
		r.DateCompleted = &at
	}
	if u.StartWork && r.DateStartWork == nil {
		at := u.At
		r.DateStartWork = &at
	}
	if u.ClearMaster {
		r.MasterID = nil
	}
	f.requests[id] = r
	f.log(u.ActorID, id, "status_change")
	return nil
}

func (f *fakeStore) UpdateRequestMaster(_ context.Context, id uint, expect store.Expect, u store.MasterUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.guarded(id, expect)
	if err != nil {
		return err
	}
	r.MasterID = u.MasterID
	r.StatusID = u.StatusID
	if u.StartWork && r.DateStartWork == nil {
		at := u.At
		r.DateStartWork = &at
	}
	f.requests[id] = r
	f.log(u.ActorID, id, "assign")
	return nil
}

func (f *fakeStore) CompleteRequest(_ context.Context, id uint, expect store.Expect, in store.CompleteInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.guarded(id, expect)
	if err != nil {
		return err
	}
	r.StatusID = in.StatusID
	r.RepairParts = in.RepairParts
	if in.Cost != nil {
		r.Cost = in.Cost
	}
	if in.Completed {
		at := in.At
		r.DateCompleted = &at
	}
	if in.ClearMaster {
		r.MasterID = nil
	}
	f.requests[id] = r
	f.log(in.ActorID, id, "complete")
	return nil
}

func (f *fakeStore) UpdateRequestDescription(_ context.Context, id uint, expect store.Expect, text string, actorID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.guarded(id, expect)
	if err != nil {
		return err
	}
	r.Description = text
	f.requests[id] = r
	f.log(actorID, id, "update")
	return nil
}

func (f *fakeStore) InsertComment(_ context.Context, c models.Comment) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id()
	f.comments = append(f.comments, c)
	return c.ID, nil
}

func (f *fakeStore) ListComments(_ context.Context, requestID uint) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Comment{}
	for _, c := range f.comments {
		if c.RequestID == requestID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAudit(_ context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AuditLog{}
	for _, l := range f.audit {
		if l.Entity == entity && l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) GetStatus(_ context.Context, id uint) (models.Status, error) {
	for _, s := range f.statuses {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Status{}, store.ErrNotFound
}

func (f *fakeStore) StatusByCode(_ context.Context, code models.StatusCode) (models.Status, error) {
	for _, s := range f.statuses {
		if s.Code() == code {
			return s, nil
		}
	}
	return models.Status{}, store.ErrNotFound
}

func (f *fakeStore) ListStatuses(context.Context) ([]models.Status, error) {
	return append([]models.Status(nil), f.statuses...), nil
}

func (f *fakeStore) GetEquipmentType(_ context.Context, id uint) (models.EquipmentType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	et, ok := f.equipment[id]
	if !ok {
		return et, store.ErrNotFound
	}
	return et, nil
}

func (f *fakeStore) EnsureEquipmentType(_ context.Context, name string) (models.EquipmentType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, et := range f.equipment {
		if et.Name == name {
			return et, nil
		}
	}
	et := models.EquipmentType{ID: f.id(), Name: name}
	f.equipment[et.ID] = et
	return et, nil
}

func (f *fakeStore) ListEquipmentTypes(context.Context) ([]models.EquipmentType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.EquipmentType{}
	for _, et := range f.equipment {
		out = append(out, et)
	}
	return out, nil
}

func (f *fakeStore) GetMaster(_ context.Context, id uint) (models.Master, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.masters[id]
	if !ok {
		return m, store.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) ListMasters(context.Context) ([]models.Master, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Master{}
	for _, m := range f.masters {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeStore) GetClient(_ context.Context, id uint) (models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return c, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListClients(context.Context) ([]models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Client{}
	for _, c := range f.clients {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) FindUserByLogin(_ context.Context, login string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Login == login {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (f *fakeStore) GetUser(_ context.Context, id uint) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return u, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) ListUsers(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) InsertUserAndClient(_ context.Context, in store.RegisterInput) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Login == in.Login {
			return 0, store.ErrLoginTaken
		}
	}
	id := f.id()
	f.users[id] = models.User{
		ID: id, Login: in.Login, PasswordHash: in.PasswordHash,
		Role: models.RoleClient, FullName: in.FullName, Phone: in.Phone,
	}
	f.clients[id] = models.Client{ID: id, FullName: in.FullName, Phone: in.Phone}
	return id, nil
}

func (f *fakeStore) UpdateUserRole(_ context.Context, id uint, role models.UserRole, _ uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	f.users[id] = u
	if role == models.RoleMaster {
		if _, ok := f.masters[id]; !ok {
			f.masters[id] = models.Master{ID: id, FullName: u.FullName}
		}
	}
	return nil
}

func (f *fakeStore) AggregateStatusCounts(context.Context) ([]store.StatusCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.StatusCount{}
	for _, s := range f.statuses {
		row := store.StatusCount{Status: s.Name}
		for _, r := range f.requests {
			if r.StatusID == s.ID {
				row.Count++
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeStore) AggregateMasterLoad(context.Context) ([]store.MasterLoad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[uint]int64{}
	for _, r := range f.requests {
		if r.MasterID != nil {
			counts[*r.MasterID]++
		}
	}
	out := []store.MasterLoad{}
	for id, n := range counts {
		out = append(out, store.MasterLoad{MasterID: id, Master: f.masters[id].FullName, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Master < out[j].Master })
	return out, nil
}

func (f *fakeStore) CompletedDurations(context.Context) ([]store.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Duration{}
	completed := f.statusID(models.StatusCompleted)
	for _, r := range f.requests {
		if r.StatusID == completed && r.DateCompleted != nil {
			out = append(out, store.Duration{RequestID: r.ID, DateCreated: r.DateCreated, DateCompleted: *r.DateCompleted})
		}
	}
	return out, nil
}

func (f *fakeStore) AggregatePerformance(context.Context) ([]store.PerformanceRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.PerformanceRow{}
	for _, r := range f.requests {
		if r.MasterID == nil {
			continue
		}
		v := f.view(r)
		out = append(out, store.PerformanceRow{
			MasterID: *r.MasterID, Master: *v.MasterName, RequestID: r.ID,
			Client: v.ClientName, Equipment: v.EquipmentType + " " + r.Model, Status: v.Status,
			DateCreated: r.DateCreated, DateStartWork: r.DateStartWork,
			DateCompleted: r.DateCompleted, Cost: r.Cost,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Master != out[j].Master {
			return out[i].Master < out[j].Master
		}
		return out[i].RequestID < out[j].RequestID
	})
	return out, nil
}
