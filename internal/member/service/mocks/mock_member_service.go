package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ridloal/gym-membership-service/internal/member/domain"
	"github.com/ridloal/gym-membership-service/internal/member/service"
)

type MockMemberService struct {
	mock.Mock
}

var _ service.MemberService = (*MockMemberService)(nil)

func (m *MockMemberService) Register(ctx context.Context, req domain.CreateMemberRequest) (*domain.Member, error) {
	args := m.Called(ctx, req)
	if mem := args.Get(0); mem != nil {
		return mem.(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberService) GetMember(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if mem := args.Get(0); mem != nil {
		return mem.(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberService) ListMembers(ctx context.Context, skip, limit int) ([]domain.Member, error) {
	args := m.Called(ctx, skip, limit)
	if mems := args.Get(0); mems != nil {
		return mems.([]domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberService) UpdateMember(ctx context.Context, id int64, patch domain.MemberPatch) (*domain.Member, error) {
	args := m.Called(ctx, id, patch)
	if mem := args.Get(0); mem != nil {
		return mem.(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberService) DeleteMember(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMemberService) CheckIn(ctx context.Context, lastFourDigits string) (*domain.CheckInResult, error) {
	args := m.Called(ctx, lastFourDigits)
	if res := args.Get(0); res != nil {
		return res.(*domain.CheckInResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberService) CheckInAt(ctx context.Context, lastFourDigits string, today domain.Date) (*domain.CheckInResult, error) {
	args := m.Called(ctx, lastFourDigits, today)
	if res := args.Get(0); res != nil {
		return res.(*domain.CheckInResult), args.Error(1)
	}
	return nil, args.Error(1)
}
