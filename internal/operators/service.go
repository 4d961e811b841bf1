package operators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quality-desk/internal/complaints"
	"quality-desk/internal/rbac"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers unknown users, inactive accounts and wrong
// passwords alike so callers cannot probe which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	bootstrapUsername = "admin"
	minPasswordLen    = 8
)

// Auditor records account changes. Failures are logged and ignored.
type Auditor interface {
	LogOperatorChanged(ctx context.Context, actorID, actorRole, operatorID, message string) error
}

type Service struct {
	repo  Repository
	audit Auditor
	log   *slog.Logger
	clock func() time.Time
	cost  int
}

func NewService(repo Repository, audit Auditor, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, audit: audit, log: log, clock: time.Now, cost: bcrypt.DefaultCost}
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", &complaints.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Service) Create(ctx context.Context, actorID, actorRole string, in NewOperator) (Operator, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		return Operator{}, &complaints.ValidationError{Field: "username", Reason: "required"}
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = rbac.RoleOperator
	}
	if !rbac.ValidRole(role) {
		return Operator{}, &complaints.ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return Operator{}, err
	}

	now := s.clock().UTC()
	o := Operator{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Role:         role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, o); err != nil {
		return Operator{}, err
	}
	s.record(ctx, actorID, actorRole, o.ID, "operator created with role "+role)
	return o, nil
}

func (s *Service) Update(ctx context.Context, actorID, actorRole, id string, p Patch) (Operator, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Operator{}, err
	}
	var changed []string
	if p.DisplayName != nil {
		o.DisplayName = strings.TrimSpace(*p.DisplayName)
		changed = append(changed, "display_name")
	}
	if p.Role != nil {
		if !rbac.ValidRole(*p.Role) {
			return Operator{}, &complaints.ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", *p.Role)}
		}
		o.Role = *p.Role
		changed = append(changed, "role")
	}
	if p.Active != nil {
		o.Active = *p.Active
		changed = append(changed, "active")
	}
	if p.Password != nil {
		hash, err := s.hash(*p.Password)
		if err != nil {
			return Operator{}, err
		}
		o.PasswordHash = hash
		changed = append(changed, "password")
	}
	if len(changed) == 0 {
		return o, nil
	}
	o.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, o); err != nil {
		return Operator{}, err
	}
	s.record(ctx, actorID, actorRole, o.ID, "changed "+strings.Join(changed, ", "))
	return o, nil
}

func (s *Service) List(ctx context.Context) ([]Operator, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Operator, error) {
	return s.repo.Get(ctx, id)
}

// Authenticate checks a username/password pair against the stored hash.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Operator, error) {
	o, err := s.repo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if errors.Is(err, ErrNotFound) {
		return Operator{}, ErrInvalidCredentials
	}
	if err != nil {
		return Operator{}, err
	}
	if !o.Active {
		return Operator{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)); err != nil {
		return Operator{}, ErrInvalidCredentials
	}
	return o, nil
}

// EnsureAdmin seeds an admin account when no operator exists yet. It is a
// no-op on a populated table.
func (s *Service) EnsureAdmin(ctx context.Context, password string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if password == "" {
		return false, errors.New("operators: table is empty and BOOTSTRAP_ADMIN_PASSWORD is not set")
	}
	if _, err := s.Create(ctx, "", "", NewOperator{
		Username:    bootstrapUsername,
		DisplayName: "Administrator",
		Role:        rbac.RoleAdmin,
		Password:    password,
	}); err != nil {
		return false, err
	}
	s.log.Info("bootstrap admin created", "username", bootstrapUsername)
	return true, nil
}

func (s *Service) record(ctx context.Context, actorID, actorRole, operatorID, msg string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogOperatorChanged(ctx, actorID, actorRole, operatorID, msg); err != nil {
		s.log.Warn("audit append failed", "err", err, "operator_id", operatorID)
	}
}
