package service

import (
	"testing"
	"time"

	"repair-tracker/internal/apperr"
	"repair-tracker/internal/models"
)

var testNow = time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

type fixture struct {
	st  *fakeStore
	svc *RequestService

	admin, manager, operator models.Principal
	m7, m9                   models.Principal
	client, other            models.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newFakeStore()
	svc := NewRequestService(st)
	svc.now = func() time.Time { return testNow }

	return &fixture{
		st:       st,
		svc:      svc,
		admin:    st.addUser(1, models.RoleAdmin, "Админ"),
		manager:  st.addUser(2, models.RoleManager, "Менеджер"),
		operator: st.addUser(3, models.RoleOperator, "Оператор"),
		m7:       st.addUser(7, models.RoleMaster, "Мастер Семь"),
		m9:       st.addUser(9, models.RoleMaster, "Мастер Девять"),
		client:   st.addUser(20, models.RoleClient, "Клиент"),
		other:    st.addUser(21, models.RoleClient, "Другой клиент"),
	}
}

func ptr(v uint) *uint { return &v }

func wantErr(t *testing.T, err error, kind apperr.Kind, reason apperr.Reason) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s/%s, got nil", kind, reason)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, got, err)
	}
	if reason != apperr.ReasonNone {
		if got := apperr.ReasonOf(err); got != reason {
			t.Fatalf("expected reason %s, got %s (%v)", reason, got, err)
		}
	}
}

func noErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
