package user

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/dualstore"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

// maxCodeAttempts bounds the search for an unused contractor code.
const maxCodeAttempts = 10

type UserServiceImpl struct {
	remote      user.RemoteRepository
	cache       user.CacheRepository
	prober      remote.Prober
	queue       syncqueue.Enqueuer
	session     session.Updater
	remoteFirst bool
	now         func() time.Time
}

func NewUserService(
	remoteRepo user.RemoteRepository,
	cacheRepo user.CacheRepository,
	prober remote.Prober,
	queue syncqueue.Enqueuer,
	sessions session.Updater,
	remoteFirst bool,
) user.UserService {
	return &UserServiceImpl{
		remote:      remoteRepo,
		cache:       cacheRepo,
		prober:      prober,
		queue:       queue,
		session:     sessions,
		remoteFirst: remoteFirst,
		now:         time.Now,
	}
}

func hashPassword(password string) (*string, error) {
	if password == "" {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashed := string(hash)
	return &hashed, nil
}

// CreateUser implements user.UserService.
func (s *UserServiceImpl) CreateUser(ctx context.Context, req user.CreateUserRequest) (user.ID, error) {
	if err := req.Validate(); err != nil {
		return user.ID{}, err
	}

	existing, err := s.GetUserByMobile(ctx, req.Mobile)
	if err != nil {
		return user.ID{}, fmt.Errorf("failed to check mobile: %w", err)
	}
	if existing != nil {
		return user.ID{}, user.ErrMobileExists
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return user.ID{}, fmt.Errorf("failed to hash PIN: %w", err)
	}

	newUser := user.User{
		Mobile:    req.Mobile,
		Name:      req.Name,
		Role:      user.Role(req.Role),
		Password:  passwordHash,
		CreatedAt: s.now().UTC(),
	}
	switch newUser.Role {
	case user.RoleWorker:
		newUser.Skill = req.Skill
	case user.RoleContractor:
		newUser.CompanyName = req.CompanyName
	}

	var remoteCreate dualstore.RemoteFunc[user.User]
	var conflict bool
	if err := s.prober.Probe(ctx); err != nil {
		if s.remoteFirst {
			slog.WarnContext(ctx, "remote store unreachable in remote-first mode", "error", err)
			return user.ID{}, user.ErrRemoteRequired
		}
		slog.InfoContext(ctx, "remote store unreachable, creating user locally", "error", err)
	} else {
		remoteCreate = func(ctx context.Context) (user.User, error) {
			u := newUser
			if u.IsContractor() {
				code, err := s.newContractorCode(ctx, true)
				if err != nil {
					return user.User{}, err
				}
				u.ContractorCode = &code
			}
			created, err := s.remote.Create(ctx, u)
			conflict = errors.Is(err, user.ErrMobileExists)
			return created, err
		}
	}

	created, outcome, err := dualstore.Write(ctx, "createUser", remoteCreate, s.cache.Put,
		func(ctx context.Context) (user.User, error) {
			// a mobile taken remotely must not be registered again offline
			if conflict {
				return user.User{}, user.ErrMobileExists
			}
			return s.createLocal(ctx, newUser)
		})
	if err != nil {
		return user.ID{}, err
	}

	slog.InfoContext(ctx, "user created", "user_id", created.ID.String(), "role", created.Role, "remote", outcome.Remote)
	return created.ID, nil
}

// createLocal mints a local id and writes the user to the cache only.
func (s *UserServiceImpl) createLocal(ctx context.Context, u user.User) (user.User, error) {
	u.ID = user.NewLocalID()
	if u.IsContractor() && !u.HasContractorCode() {
		code, err := s.newContractorCode(ctx, false)
		if err != nil {
			return user.User{}, err
		}
		u.ContractorCode = &code
	}
	if err := s.cache.Put(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("failed to save user locally: %w", err)
	}
	return u, nil
}

// AuthenticateUser implements user.UserService.
func (s *UserServiceImpl) AuthenticateUser(ctx context.Context, mobile string, password string) (*user.User, error) {
	u, err := s.GetUserByMobile(ctx, mobile)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by mobile: %w", err)
	}
	if u == nil || !u.HasPassword() {
		return nil, user.ErrInvalidCredentials
	}

	stored := []byte(*u.Password)
	if _, costErr := bcrypt.Cost(stored); costErr == nil {
		if err := bcrypt.CompareHashAndPassword(stored, []byte(password)); err != nil {
			return nil, user.ErrInvalidCredentials
		}
		return u, nil
	}

	// PIN stored in plaintext by an older client
	if subtle.ConstantTimeCompare(stored, []byte(password)) != 1 {
		return nil, user.ErrInvalidCredentials
	}
	if err := s.SetPassword(ctx, u.ID, password); err != nil {
		slog.WarnContext(ctx, "failed to migrate plaintext PIN", "user_id", u.ID.String(), "error", err)
		return u, nil
	}
	if migrated, err := s.cache.Get(ctx, u.ID); err == nil && migrated != nil {
		return migrated, nil
	}
	return u, nil
}

// GetUserByMobile implements user.UserService.
func (s *UserServiceImpl) GetUserByMobile(ctx context.Context, mobile string) (*user.User, error) {
	return dualstore.ReadOne(ctx, "getUserByMobile",
		s.withPending(func(ctx context.Context) (*user.User, error) { return s.remote.GetByMobile(ctx, mobile) }),
		s.cache.Put,
		func(ctx context.Context) (*user.User, error) { return s.cache.GetByMobile(ctx, mobile) },
	)
}

// GetUserByID implements user.UserService. Local ids are never sent to the remote store.
func (s *UserServiceImpl) GetUserByID(ctx context.Context, id user.ID) (*user.User, error) {
	var remoteGet dualstore.RemoteFunc[*user.User]
	if !id.IsLocal() {
		remoteGet = s.withPending(func(ctx context.Context) (*user.User, error) { return s.remote.GetByID(ctx, id) })
	}
	return dualstore.ReadOne(ctx, "getUserByID", remoteGet, s.cache.Put,
		func(ctx context.Context) (*user.User, error) { return s.cache.Get(ctx, id) },
	)
}

// withPending applies queued PIN and contractor code writes to a remote
// user, so a remote read never undoes a write that is waiting for sync.
func (s *UserServiceImpl) withPending(get dualstore.RemoteFunc[*user.User]) dualstore.RemoteFunc[*user.User] {
	return func(ctx context.Context) (*user.User, error) {
		u, err := get(ctx)
		if err != nil || u == nil {
			return u, err
		}
		key := u.ID.String()
		if raw, ok := s.queue.Pending(syncqueue.OpSetPassword, key); ok {
			var p syncqueue.SetPasswordPayload
			if err := json.Unmarshal(raw, &p); err == nil && p.PasswordHash != "" {
				u.Password = &p.PasswordHash
			}
		}
		if raw, ok := s.queue.Pending(syncqueue.OpUpdateContractorCode, key); ok {
			var p syncqueue.UpdateContractorCodePayload
			if err := json.Unmarshal(raw, &p); err == nil && p.ContractorCode != "" {
				u.ContractorCode = &p.ContractorCode
			}
		}
		return u, nil
	}
}

// EnsureContractorCode implements user.UserService. A code already in the
// cache is returned as is, even when it has not reached the remote store yet.
func (s *UserServiceImpl) EnsureContractorCode(ctx context.Context, id user.ID) (string, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to read cached user", "user_id", id.String(), "error", err)
	} else if cached != nil && cached.IsContractor() && cached.HasContractorCode() {
		return *cached.ContractorCode, nil
	}

	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return "", user.ErrUserNotFound
	}
	if !u.IsContractor() {
		return "", user.ErrContractorRequired
	}
	if u.HasContractorCode() {
		return *u.ContractorCode, nil
	}

	code, err := s.newContractorCode(ctx, !id.IsLocal())
	if err != nil {
		return "", err
	}

	if !id.IsLocal() {
		if err := s.remote.UpdateContractorCode(ctx, id, code); err != nil {
			slog.WarnContext(ctx, "remote contractor code update failed, queued", "user_id", id.String(), "error", err)
			s.enqueue(ctx, syncqueue.OpUpdateContractorCode, syncqueue.UpdateContractorCodePayload{UserID: id.String(), ContractorCode: code})
		} else {
			s.discard(ctx, syncqueue.OpUpdateContractorCode, id.String())
		}
	}

	u.ContractorCode = &code
	if err := s.cache.Put(ctx, *u); err != nil {
		return "", fmt.Errorf("failed to save contractor code locally: %w", err)
	}
	if err := s.session.UpdateIfActive(ctx, id, func(active *user.User) { active.ContractorCode = &code }); err != nil {
		slog.WarnContext(ctx, "failed to update session", "error", err)
	}
	return code, nil
}

// SetPassword implements user.UserService.
func (s *UserServiceImpl) SetPassword(ctx context.Context, id user.ID, password string) error {
	if !validator.IsValidPIN(password) {
		return validator.ValidationErrors{{Field: "password", Message: "PIN must be 4 to 6 digits"}}
	}

	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return user.ErrUserNotFound
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash PIN: %w", err)
	}

	if !id.IsLocal() {
		if err := s.remote.UpdatePassword(ctx, id, *hash); err != nil {
			slog.WarnContext(ctx, "remote PIN update failed, queued", "user_id", id.String(), "error", err)
			s.enqueue(ctx, syncqueue.OpSetPassword, syncqueue.SetPasswordPayload{UserID: id.String(), PasswordHash: *hash})
		} else {
			s.discard(ctx, syncqueue.OpSetPassword, id.String())
		}
	}

	u.Password = hash
	if err := s.cache.Put(ctx, *u); err != nil {
		return fmt.Errorf("failed to save PIN locally: %w", err)
	}
	return nil
}

// newContractorCode returns a code no known contractor holds. Remote lookup
// errors are logged and the search continues against the cache alone.
func (s *UserServiceImpl) newContractorCode(ctx context.Context, checkRemote bool) (string, error) {
	cached, err := s.cache.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list cached users: %w", err)
	}
	taken := make(map[string]bool)
	for _, u := range cached {
		if u.IsContractor() && u.HasContractorCode() {
			taken[*u.ContractorCode] = true
		}
	}

	for i := 0; i < maxCodeAttempts; i++ {
		code, err := user.NewContractorCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate contractor code: %w", err)
		}
		if taken[code] {
			continue
		}
		if checkRemote {
			holder, err := s.remote.GetContractorByCode(ctx, code)
			if err != nil {
				slog.WarnContext(ctx, "remote code check failed, checking cache only", "error", err)
				checkRemote = false
			} else if holder != nil {
				continue
			}
		}
		return code, nil
	}
	return "", user.ErrCodeGenerationLimit
}

func (s *UserServiceImpl) enqueue(ctx context.Context, op syncqueue.Operation, payload any) {
	if err := s.queue.Enqueue(ctx, op, payload); err != nil {
		slog.ErrorContext(ctx, "failed to queue remote write", "operation", op, "error", err)
	}
}

func (s *UserServiceImpl) discard(ctx context.Context, op syncqueue.Operation, key string) {
	if err := s.queue.Discard(ctx, op, key); err != nil {
		slog.WarnContext(ctx, "failed to drop superseded remote write", "operation", op, "key", key, "error", err)
	}
}
