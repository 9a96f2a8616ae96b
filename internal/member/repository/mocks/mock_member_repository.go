package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ridloal/gym-membership-service/internal/member/domain"
	"github.com/ridloal/gym-membership-service/internal/member/repository"
)

type MockMemberRepository struct {
	mock.Mock
}

var _ repository.MemberRepository = (*MockMemberRepository)(nil)

// MockedMemberID is assigned by CreateMember when no error is returned.
const MockedMemberID int64 = 101

func (m *MockMemberRepository) CreateMember(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	if member != nil && args.Error(0) == nil {
		member.ID = MockedMemberID
		member.CreatedAt = time.Now()
		member.UpdatedAt = member.CreatedAt
	}
	return args.Error(0)
}

func (m *MockMemberRepository) GetMemberByID(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if mem := args.Get(0); mem != nil {
		return mem.(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) ListMembers(ctx context.Context, offset, limit int) ([]domain.Member, error) {
	args := m.Called(ctx, offset, limit)
	if mems := args.Get(0); mems != nil {
		return mems.([]domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) DeleteMember(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMemberRepository) FindMembersByPhoneSuffix(ctx context.Context, digits string) ([]domain.Member, error) {
	args := m.Called(ctx, digits)
	if mems := args.Get(0); mems != nil {
		return mems.([]domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) BeginTx(ctx context.Context) (repository.DBTX, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repository.DBTX), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) GetMemberForUpdate(ctx context.Context, dbops repository.DBTX, id int64) (*domain.Member, error) {
	args := m.Called(ctx, dbops, id)
	if mem := args.Get(0); mem != nil {
		return mem.(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) UpdateMember(ctx context.Context, dbops repository.DBTX, member *domain.Member) error {
	args := m.Called(ctx, dbops, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
