// Package services – UserService
//
// UserService registers Home Assistant users, manages the helper/helped
// relation and resolves on whose behalf a request acts. Ownership rules live
// here so the medication and reminder services share them:
//   - anyone acts for themselves;
//   - a HELPED user never acts for someone else (ErrForbidden);
//   - a HELPER acts for the users they help (ErrHelpedUserNotFound otherwise).
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/repo"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, homeAssistantUserID string, role domain.UserRole) (*domain.User, error)
	GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)
	GetUserByHomeAssistantID(ctx context.Context, db *gorm.DB, homeAssistantUserID string) (*domain.User, error)
	UpdateUserDevice(ctx context.Context, db *gorm.DB, id uint, device *string) error
	AddHelpedUser(ctx context.Context, db *gorm.DB, helperID, helpedID uint) error
	IsHelping(ctx context.Context, db *gorm.DB, helperID, helpedID uint) (bool, error)
	ListHelpedUsers(ctx context.Context, db *gorm.DB, helperID uint) ([]domain.User, error)
}

// GormUserRepo adapts the repo package functions to UserRepo.
type GormUserRepo struct{}

func (GormUserRepo) CreateUser(ctx context.Context, db *gorm.DB, haID string, role domain.UserRole) (*domain.User, error) {
	return repo.CreateUser(ctx, db, haID, role)
}

func (GormUserRepo) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (GormUserRepo) GetUserByHomeAssistantID(ctx context.Context, db *gorm.DB, haID string) (*domain.User, error) {
	return repo.GetUserByHomeAssistantID(ctx, db, haID)
}

func (GormUserRepo) UpdateUserDevice(ctx context.Context, db *gorm.DB, id uint, device *string) error {
	return repo.UpdateUserDevice(ctx, db, id, device)
}

func (GormUserRepo) AddHelpedUser(ctx context.Context, db *gorm.DB, helperID, helpedID uint) error {
	return repo.AddHelpedUser(ctx, db, helperID, helpedID)
}

func (GormUserRepo) IsHelping(ctx context.Context, db *gorm.DB, helperID, helpedID uint) (bool, error) {
	return repo.IsHelping(ctx, db, helperID, helpedID)
}

func (GormUserRepo) ListHelpedUsers(ctx context.Context, db *gorm.DB, helperID uint) ([]domain.User, error) {
	return repo.ListHelpedUsers(ctx, db, helperID)
}

// maxDeviceLen matches the mobile_app_device column width.
const maxDeviceLen = 255

// UserService provides user registration and ownership checks.
type UserService struct {
	DB   *gorm.DB
	Repo UserRepo
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, r UserRepo) *UserService {
	return &UserService{DB: db, Repo: r}
}

// Register creates the user row for a Home Assistant id.
func (s *UserService) Register(ctx context.Context, homeAssistantUserID string, role domain.UserRole) (*domain.User, error) {
	if !role.Valid() {
		return nil, invalid("role")
	}
	u, err := s.Repo.CreateUser(ctx, s.DB, homeAssistantUserID, role)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrUserExists
	}
	return u, err
}

// Lookup returns the user registered for a Home Assistant id.
func (s *UserService) Lookup(ctx context.Context, homeAssistantUserID string) (*domain.User, error) {
	u, err := s.Repo.GetUserByHomeAssistantID(ctx, s.DB, homeAssistantUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotRegistered
	}
	return u, err
}

// SetMobileAppDevice changes the device notified for u. A nil or blank
// device disables notifications.
func (s *UserService) SetMobileAppDevice(ctx context.Context, u *domain.User, device *string) error {
	if device != nil {
		d := strings.TrimSpace(*device)
		if utf8.RuneCountInString(d) > maxDeviceLen {
			return invalid("mobileAppDevice")
		}
		if d == "" {
			device = nil
		} else {
			device = &d
		}
	}
	if err := s.Repo.UpdateUserDevice(ctx, s.DB, u.ID, device); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	u.MobileAppDevice = device
	return nil
}

// AddHelped makes helper follow helpedID. Adding an existing link succeeds.
func (s *UserService) AddHelped(ctx context.Context, helper *domain.User, helpedID uint) (*domain.User, error) {
	if helper.Role != domain.RoleHelper {
		return nil, ErrForbidden
	}
	if helpedID == 0 || helpedID == helper.ID {
		return nil, invalid("helpedUserId")
	}
	target, err := s.Repo.GetUser(ctx, s.DB, helpedID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if target.Role != domain.RoleHelped {
		return nil, &ValidationError{Message: "The user is not a helped user."}
	}
	if err := s.Repo.AddHelpedUser(ctx, s.DB, helper.ID, helpedID); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		return nil, err
	}
	return target, nil
}

// HelpedUsers lists the users helped by u (empty for HELPED users).
func (s *UserService) HelpedUsers(ctx context.Context, u *domain.User) ([]domain.User, error) {
	if u.Role != domain.RoleHelper {
		return []domain.User{}, nil
	}
	return s.Repo.ListHelpedUsers(ctx, s.DB, u.ID)
}

// ResolveOwner returns the user a write from caller targets: caller itself
// when userID is nil or the caller's id, otherwise a user caller helps.
func (s *UserService) ResolveOwner(ctx context.Context, caller *domain.User, userID *uint) (*domain.User, error) {
	if userID == nil || *userID == caller.ID {
		return caller, nil
	}
	if caller.Role == domain.RoleHelped {
		return nil, ErrForbidden
	}
	ok, err := s.Repo.IsHelping(ctx, s.DB, caller.ID, *userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHelpedUserNotFound
	}
	return s.Repo.GetUser(ctx, s.DB, *userID)
}

// CanAccess reports whether caller may read or change rows owned by ownerID.
func (s *UserService) CanAccess(ctx context.Context, caller *domain.User, ownerID uint) (bool, error) {
	if ownerID == caller.ID {
		return true, nil
	}
	if caller.Role != domain.RoleHelper {
		return false, nil
	}
	return s.Repo.IsHelping(ctx, s.DB, caller.ID, ownerID)
}
