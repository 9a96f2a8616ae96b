package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ridloal/gym-membership-service/internal/member/domain"
	"github.com/ridloal/gym-membership-service/internal/member/repository"
	"github.com/ridloal/gym-membership-service/internal/platform/logger"
)

var (
	ErrPhoneAlreadyRegistered = errors.New("phone number already registered")
	ErrNoSuchMember           = errors.New("no member is registered with these digits")
	ErrAmbiguousMember        = errors.New("several members share these last four digits")
	ErrInvalidPagination      = errors.New("skip and limit must not be negative")
)

// AmbiguousMemberError carries the members matching a suffix lookup so the
// caller can disambiguate, e.g. by full phone number.
type AmbiguousMemberError struct {
	Candidates []domain.Candidate
}

func (e *AmbiguousMemberError) Error() string {
	return fmt.Sprintf("%s (%d candidates)", ErrAmbiguousMember.Error(), len(e.Candidates))
}

func (e *AmbiguousMemberError) Is(target error) bool {
	return target == ErrAmbiguousMember
}

// CheckInRecorder receives the outcome of every check-in attempt.
type CheckInRecorder interface {
	ObserveCheckIn(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveCheckIn(string) {}

type MemberService interface {
	Register(ctx context.Context, req domain.CreateMemberRequest) (*domain.Member, error)
	GetMember(ctx context.Context, id int64) (*domain.Member, error)
	ListMembers(ctx context.Context, skip, limit int) ([]domain.Member, error)
	UpdateMember(ctx context.Context, id int64, patch domain.MemberPatch) (*domain.Member, error)
	DeleteMember(ctx context.Context, id int64) error
	CheckIn(ctx context.Context, lastFourDigits string) (*domain.CheckInResult, error)
	CheckInAt(ctx context.Context, lastFourDigits string, today domain.Date) (*domain.CheckInResult, error)
}

type Option func(*memberService)

// WithClock sets the source of the current time used to determine "today".
func WithClock(now func() time.Time) Option {
	return func(s *memberService) { s.now = now }
}

// WithLocation sets the time zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(s *memberService) { s.loc = loc }
}

func WithCheckInRecorder(r CheckInRecorder) Option {
	return func(s *memberService) { s.recorder = r }
}

type memberService struct {
	repo     repository.MemberRepository
	now      func() time.Time
	loc      *time.Location
	recorder CheckInRecorder
}

func NewMemberService(repo repository.MemberRepository, opts ...Option) MemberService {
	s := &memberService{
		repo:     repo,
		now:      time.Now,
		loc:      time.Local,
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *memberService) today() domain.Date {
	return domain.DateOf(s.now().In(s.loc))
}

func (s *memberService) Register(ctx context.Context, req domain.CreateMemberRequest) (*domain.Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	member := req.ToMember()
	if err := s.repo.CreateMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrPhoneConflict) {
			return nil, ErrPhoneAlreadyRegistered
		}
		logger.Error("Register: failed to create member in repo", err)
		return nil, fmt.Errorf("could not save member: %w", err)
	}
	logger.Info("Member registered", "member_id", member.ID)
	return member, nil
}

func (s *memberService) GetMember(ctx context.Context, id int64) (*domain.Member, error) {
	return s.repo.GetMemberByID(ctx, id)
}

func (s *memberService) ListMembers(ctx context.Context, skip, limit int) ([]domain.Member, error) {
	if skip < 0 || limit < 0 {
		return nil, ErrInvalidPagination
	}
	return s.repo.ListMembers(ctx, skip, limit)
}

// UpdateMember applies only the supplied fields. The merged record is
// validated inside the transaction that holds the row lock; phone uniqueness
// is left to the store's unique index.
func (s *memberService) UpdateMember(ctx context.Context, id int64, patch domain.MemberPatch) (*domain.Member, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		logger.Error("UpdateMember: begin tx failed", err)
		return nil, fmt.Errorf("could not update member: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	member, err := s.repo.GetMemberForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return member, nil
	}
	if err := patch.ApplyTo(member); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMember(ctx, tx, member); err != nil {
		if errors.Is(err, repository.ErrPhoneConflict) {
			return nil, ErrPhoneAlreadyRegistered
		}
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, err
		}
		logger.Error("UpdateMember: repo update failed", err, "member_id", id)
		return nil, fmt.Errorf("could not update member: %w", err)
	}
	if err := tx.Commit(); err != nil {
		logger.Error("UpdateMember: commit failed", err, "member_id", id)
		return nil, fmt.Errorf("could not update member: %w", err)
	}
	return member, nil
}

func (s *memberService) DeleteMember(ctx context.Context, id int64) error {
	if err := s.repo.DeleteMember(ctx, id); err != nil {
		return err
	}
	logger.Info("Member deleted", "member_id", id)
	return nil
}

func (s *memberService) CheckIn(ctx context.Context, lastFourDigits string) (*domain.CheckInResult, error) {
	return s.CheckInAt(ctx, lastFourDigits, s.today())
}

func (s *memberService) CheckInAt(ctx context.Context, lastFourDigits string, today domain.Date) (*domain.CheckInResult, error) {
	if err := domain.ValidateSuffix(lastFourDigits); err != nil {
		s.recorder.ObserveCheckIn("invalid_suffix")
		return nil, err
	}

	members, err := s.repo.FindMembersByPhoneSuffix(ctx, lastFourDigits)
	if err != nil {
		logger.Error("CheckIn: suffix lookup failed", err)
		return nil, fmt.Errorf("could not look up member: %w", err)
	}

	switch len(members) {
	case 0:
		s.recorder.ObserveCheckIn("no_such_member")
		return nil, ErrNoSuchMember
	case 1:
	default:
		s.recorder.ObserveCheckIn("ambiguous")
		candidates := make([]domain.Candidate, 0, len(members))
		for _, m := range members {
			candidates = append(candidates, m.Candidate())
		}
		return nil, &AmbiguousMemberError{Candidates: candidates}
	}

	member := members[0]
	status, remaining := domain.ResolveStatus(member, today)
	s.recorder.ObserveCheckIn(string(status))
	return &domain.CheckInResult{
		Member:           member,
		Status:           status,
		RemainingMessage: remaining,
		WelcomeMessage:   domain.WelcomeMessage(member.Name),
	}, nil
}
