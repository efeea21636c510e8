// Package profile drives the security settings flows: the three-step BVN
// verification wizard (start, OTP, confirmed), bank account linking, and
// password/PIN rotation. The upstream performs the actual verification; this
// package validates inputs, sequences the steps, and records a bcrypt hash of
// each verified BVN so a later re-verification with a different number can be
// flagged without the raw number ever being stored.
package profile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/puresec-ng/banyan-portal/internal/model"
	"github.com/puresec-ng/banyan-portal/internal/repository"
	"github.com/puresec-ng/banyan-portal/internal/upstream"
)

var (
	ErrInvalidBVN     = errors.New("bvn must be 11 digits")
	ErrInvalidOTP     = errors.New("otp must be 6 digits")
	ErrInvalidAccount = errors.New("account number must be 10 digits")
	ErrInvalidPIN     = errors.New("pin must be 4 digits")
	// ErrNoPendingBVN means OTP confirmation arrived without a preceding
	// verification start in this session.
	ErrNoPendingBVN = errors.New("no bvn verification in progress")
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

var (
	bvnPattern     = regexp.MustCompile(`^[0-9]{11}$`)
	otpPattern     = regexp.MustCompile(`^[0-9]{6}$`)
	accountPattern = regexp.MustCompile(`^[0-9]{10}$`)
	pinPattern     = regexp.MustCompile(`^[0-9]{4}$`)
)

// API is the slice of the upstream client this package needs.
type API interface {
	GetProfile(creds *upstream.Credentials) (*model.Profile, error)
	VerifyBVN(creds *upstream.Credentials, bvn string) error
	ConfirmBVNOTP(creds *upstream.Credentials, otp string) error
	LinkBankAccount(creds *upstream.Credentials, bankCode, accountNumber string) (*model.BankAccount, error)
	ChangePassword(creds *upstream.Credentials, current, next string) error
	ChangePIN(creds *upstream.Credentials, current, next string) error
}

// BVNStore persists verification records. Postgres in production.
type BVNStore interface {
	Upsert(ctx context.Context, rec *repository.BVNRecord) error
	Get(ctx context.Context, profileID string) (*repository.BVNRecord, error)
}

// Service sequences the profile/security flows.
type Service struct {
	api  API
	bvns BVNStore
	log  *zap.Logger
	now  func() time.Time

	// pending holds BVNs between the start and OTP steps, keyed by profile.
	// They live only in memory and only until confirmation.
	mu      sync.Mutex
	pending map[string]string
}

// NewService constructs a Service.
func NewService(api API, bvns BVNStore, log *zap.Logger) *Service {
	return &Service{
		api:     api,
		bvns:    bvns,
		log:     log,
		now:     time.Now,
		pending: make(map[string]string),
	}
}

// StartBVN begins verification: the upstream sends an OTP to the phone number
// registered against the BVN.
func (s *Service) StartBVN(ctx context.Context, creds *upstream.Credentials, profileID, bvn string) error {
	if !bvnPattern.MatchString(bvn) {
		return ErrInvalidBVN
	}
	if err := s.api.VerifyBVN(creds, bvn); err != nil {
		return err
	}
	s.mu.Lock()
	s.pending[profileID] = bvn
	s.mu.Unlock()
	return nil
}

// ConfirmOTP completes verification and records the BVN hash. If the profile
// already had a verified BVN and the new number differs, the change is logged
// for review; the upstream remains the authority on acceptance.
func (s *Service) ConfirmOTP(ctx context.Context, creds *upstream.Credentials, profileID, otp string) error {
	if !otpPattern.MatchString(otp) {
		return ErrInvalidOTP
	}
	s.mu.Lock()
	bvn, ok := s.pending[profileID]
	s.mu.Unlock()
	if !ok {
		return ErrNoPendingBVN
	}
	if err := s.api.ConfirmBVNOTP(creds, otp); err != nil {
		return err
	}
	if prev, err := s.bvns.Get(ctx, profileID); err == nil {
		if bcrypt.CompareHashAndPassword([]byte(prev.BVNHash), []byte(bvn)) != nil {
			s.log.Warn("bvn changed on re-verification", zap.String("profile", profileID))
		}
	} else if !errors.Is(err, repository.ErrBVNRecordNotFound) {
		return fmt.Errorf("load bvn record: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(bvn), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bvn: %w", err)
	}
	rec := &repository.BVNRecord{
		ProfileID:  profileID,
		BVNHash:    string(hash),
		MaskedTail: "*******" + bvn[len(bvn)-4:],
		VerifiedAt: s.now().UTC(),
	}
	if err := s.bvns.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("store bvn record: %w", err)
	}
	s.mu.Lock()
	delete(s.pending, profileID)
	s.mu.Unlock()
	return nil
}

// VerificationRecord returns the stored record for display (masked tail and
// verification date only).
func (s *Service) VerificationRecord(ctx context.Context, profileID string) (*repository.BVNRecord, error) {
	return s.bvns.Get(ctx, profileID)
}

// LinkBank validates and forwards a bank account link request.
func (s *Service) LinkBank(ctx context.Context, creds *upstream.Credentials, bankCode, accountNumber string) (*model.BankAccount, error) {
	if bankCode == "" || !accountPattern.MatchString(accountNumber) {
		return nil, ErrInvalidAccount
	}
	return s.api.LinkBankAccount(creds, bankCode, accountNumber)
}

// ChangePassword validates and forwards a password rotation.
func (s *Service) ChangePassword(ctx context.Context, creds *upstream.Credentials, current, next string) error {
	if len(next) < 8 {
		return ErrWeakPassword
	}
	return s.api.ChangePassword(creds, current, next)
}

// ChangePIN validates and forwards a transaction PIN rotation.
func (s *Service) ChangePIN(ctx context.Context, creds *upstream.Credentials, current, next string) error {
	if !pinPattern.MatchString(next) {
		return ErrInvalidPIN
	}
	return s.api.ChangePIN(creds, current, next)
}

// MemoryBVNStore is the in-memory BVNStore used in tests and development.
type MemoryBVNStore struct {
	mu      sync.RWMutex
	records map[string]*repository.BVNRecord
}

// NewMemoryBVNStore constructs a MemoryBVNStore.
func NewMemoryBVNStore() *MemoryBVNStore {
	return &MemoryBVNStore{records: make(map[string]*repository.BVNRecord)}
}

func (m *MemoryBVNStore) Upsert(_ context.Context, rec *repository.BVNRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ProfileID] = &cp
	return nil
}

func (m *MemoryBVNStore) Get(_ context.Context, profileID string) (*repository.BVNRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[profileID]
	if !ok {
		return nil, repository.ErrBVNRecordNotFound
	}
	cp := *rec
	return &cp, nil
}
