package user

import (
	"time"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDeactivated        = errors.New("account deactivated")
)

type (
	Repository interface {
		CheckUsernameUniqueness(username, email string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id int) (User, error)
		GetUserByUsernameOrEmail(username string) (User, error)
		UpdateUser(user User) (User, error)
	}

	Service struct {
		repo    Repository
		NowFunc func() time.Time // mockable
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, NowFunc: time.Now}
}

func (svc *Service) checkUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return &core.ValidationError{Err: err, Message: err.Error(), Fields: []core.FieldError{{Field: field, Error: err.Error()}}}
	}
	return nil
}

// Create stores a new active user. Users without a role are students.
func (svc *Service) Create(nu NewUser) (User, error) {
	now := svc.NowFunc().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.Role == "" {
		usr.Role = RoleStudent
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(usr)
}

// EnsureAdmin creates the admin account, or resets its password when it already exists.
func (svc *Service) EnsureAdmin(uname, pwd string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	usr, err := svc.repo.GetUserByUsernameOrEmail(uname)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return User{}, err
		}
		return svc.Create(NewUser{Name: "Administrator", Username: uname, Email: uname + "@example.edu", Password: pwd, Role: RoleAdmin})
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.Role = RoleAdmin
	usr.IsActive = true
	return svc.repo.UpdateUser(usr)
}

// Authenticate checks the credentials and stamps the last login.
func (svc *Service) Authenticate(uname, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByUsernameOrEmail(core.CleanString(uname, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrDeactivated
	}
	usr.LastLogin = svc.NowFunc().UTC()
	return svc.repo.UpdateUser(usr)
}

// ChangePassword replaces the password of user `id` after checking the current one.
func (svc *Service) ChangePassword(id int, pc PasswordChange) error {
	if err := pc.Validate(); err != nil {
		return err
	}
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return err
	}
	if err := usr.CheckPassword(pc.CurrentPassword); err != nil {
		return core.NewValidationError(
			errors.New("current password is incorrect"),
			core.FieldError{Field: "currentPassword", Error: "current password is incorrect"},
		)
	}
	if err := usr.SetPassword(pc.NewPassword); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = svc.NowFunc().UTC()
	_, err = svc.repo.UpdateUser(usr)
	return err
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id int) (User, error) {
	return svc.repo.GetUserByID(id)
}
