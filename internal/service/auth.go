package service

import (
	"context"
	"errors"

	"repair-tracker/internal/access"
	"repair-tracker/internal/apperr"
	"repair-tracker/internal/models"
	"repair-tracker/internal/store"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minCredentialLength = 3

type AuthService struct {
	store store.UserStore
	cost  int
}

func NewAuthService(s store.UserStore) *AuthService {
	return &AuthService{store: s, cost: bcrypt.DefaultCost}
}

type RegisterInput struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (s *AuthService) Authenticate(ctx context.Context, login, password string) (models.Principal, error) {
	login, err := required("login", login)
	if err != nil {
		return models.Principal{}, err
	}
	if password == "" {
		return models.Principal{}, apperr.Validation(apperr.ReasonEmptyField, "password must not be empty")
	}

	user, err := s.store.FindUserByLogin(ctx, login)
	if errors.Is(err, store.ErrNotFound) {
		return models.Principal{}, invalidCredentials()
	}
	if err != nil {
		return models.Principal{}, storeErr(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.WithField("login", login).Info("failed login attempt")
		return models.Principal{}, invalidCredentials()
	}
	return user.Principal(), nil
}

func invalidCredentials() error {
	return apperr.New(apperr.KindInvalidCredentials, apperr.ReasonNone, "invalid login or password")
}

// Register создаёт пользователя с ролью "Клиент" вместе с записью клиента.
// Остальные роли потом выдаёт администратор.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (uint, error) {
	var err error
	if in.FullName, err = required("full name", in.FullName); err != nil {
		return 0, err
	}
	if in.Phone, err = required("phone", in.Phone); err != nil {
		return 0, err
	}
	if in.Login, err = required("login", in.Login); err != nil {
		return 0, err
	}
	if in.Password == "" {
		return 0, apperr.Validation(apperr.ReasonEmptyField, "password must not be empty")
	}
	if err := minLength("login", in.Login, minCredentialLength); err != nil {
		return 0, err
	}
	if err := minLength("password", in.Password, minCredentialLength); err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return 0, apperr.Validation(apperr.ReasonNone, "password is too long")
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, err, "hash password")
	}

	id, err := s.store.InsertUserAndClient(ctx, store.RegisterInput{
		Login:        in.Login,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Phone:        in.Phone,
	})
	if err != nil {
		return 0, storeErr(err, "user")
	}

	log.WithFields(log.Fields{"user_id": id, "login": in.Login}).Info("client registered")
	return id, nil
}

func (s *AuthService) UpdateUserRole(ctx context.Context, p models.Principal, userID uint, role models.UserRole) error {
	if !access.CanChangeRole(p, userID) {
		return apperr.Unauthorized(apperr.ReasonSelfRoleChange, "you cannot change your own role")
	}
	if err := requireRole(p, access.ManageUsers); err != nil {
		return err
	}
	if !role.Valid() {
		return apperr.Validation(apperr.ReasonInvalidTarget, "unknown role "+string(role))
	}

	if err := s.store.UpdateUserRole(ctx, userID, role, p.UserID); err != nil {
		return storeErr(err, "user")
	}

	log.WithFields(log.Fields{
		"user_id": p.UserID,
		"target":  userID,
		"role":    role,
		"action":  "role_change",
	}).Info("user role changed")
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context, p models.Principal) ([]models.User, error) {
	if err := requireRole(p, access.ManageUsers); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	return users, storeErr(err, "user")
}

// Principal перечитывает пользователя, чтобы смена роли действовала со следующего запроса.
func (s *AuthService) Principal(ctx context.Context, userID uint) (models.Principal, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.Principal{}, storeErr(err, "user")
	}
	return user.Principal(), nil
}
