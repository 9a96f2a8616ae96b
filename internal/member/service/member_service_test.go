package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ridloal/gym-membership-service/internal/member/domain"
	"github.com/ridloal/gym-membership-service/internal/member/repository"
	"github.com/ridloal/gym-membership-service/internal/member/repository/mocks"
)

type recordedOutcomes []string

func (r *recordedOutcomes) ObserveCheckIn(outcome string) { *r = append(*r, outcome) }

func dateRef(y int, m time.Month, d int) *domain.Date {
	date := domain.NewDate(y, m, d)
	return &date
}

func strRef(s string) *string { return &s }

func TestMemberService_Register(t *testing.T) {
	ctx := context.TODO()
	req := domain.CreateMemberRequest{
		Name:        "A",
		PhoneNumber: "010-1234-5678",
		StartDate:   dateRef(2023, 1, 1),
	}

	t.Run("Successful registration", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		svc := NewMemberService(mockRepo)
		mockRepo.On("CreateMember", ctx, mock.AnythingOfType("*domain.Member")).Return(nil).Once()

		member, err := svc.Register(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, mocks.MockedMemberID, member.ID)
		assert.Equal(t, "010-1234-5678", member.PhoneNumber)
		assert.Nil(t, member.EndDate)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Second registration with the same phone fails", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		svc := NewMemberService(mockRepo)
		mockRepo.On("CreateMember", ctx, mock.AnythingOfType("*domain.Member")).Return(nil).Once()
		mockRepo.On("CreateMember", ctx, mock.AnythingOfType("*domain.Member")).Return(repository.ErrPhoneConflict).Once()

		first, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.NotNil(t, first)

		second, err := svc.Register(ctx, req)
		assert.Nil(t, second)
		assert.ErrorIs(t, err, ErrPhoneAlreadyRegistered)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Invalid request never reaches the repository", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		svc := NewMemberService(mockRepo)

		bad := req
		bad.PhoneNumber = "010-12345-678"
		bad.EndDate = dateRef(2022, 12, 31)

		member, err := svc.Register(ctx, bad)
		assert.Nil(t, member)
		assert.ErrorIs(t, err, domain.ErrInvalidPhoneFormat)
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
		mockRepo.AssertNotCalled(t, "CreateMember", mock.Anything, mock.Anything)
	})

	t.Run("Repository error on CreateMember", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		svc := NewMemberService(mockRepo)
		mockRepo.On("CreateMember", ctx, mock.AnythingOfType("*domain.Member")).Return(errors.New("database error")).Once()

		member, err := svc.Register(ctx, req)
		assert.Nil(t, member)
		assert.ErrorContains(t, err, "could not save member")
		mockRepo.AssertExpectations(t)
	})
}

func TestMemberService_ListMembers(t *testing.T) {
	ctx := context.TODO()
	mockRepo := new(mocks.MockMemberRepository)
	svc := NewMemberService(mockRepo)

	t.Run("Pagination is passed through", func(t *testing.T) {
		mockRepo.On("ListMembers", ctx, 5, 10).Return([]domain.Member{{ID: 6}}, nil).Once()
		members, err := svc.ListMembers(ctx, 5, 10)
		require.NoError(t, err)
		assert.Len(t, members, 1)
	})

	t.Run("Negative values rejected", func(t *testing.T) {
		_, err := svc.ListMembers(ctx, -1, 10)
		assert.ErrorIs(t, err, ErrInvalidPagination)
		_, err = svc.ListMembers(ctx, 0, -10)
		assert.ErrorIs(t, err, ErrInvalidPagination)
	})

	mockRepo.AssertExpectations(t)
}

func TestMemberService_UpdateMember(t *testing.T) {
	ctx := context.TODO()
	current := func() *domain.Member {
		return &domain.Member{
			ID:          1,
			Name:        "A",
			PhoneNumber: "010-1234-5678",
			StartDate:   domain.NewDate(2023, 1, 1),
			EndDate:     dateRef(2023, 12, 31),
		}
	}

	t.Run("Name only leaves other fields unchanged", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		mockTx := new(mocks.MockDBTX)
		svc := NewMemberService(mockRepo)

		mockRepo.On("BeginTx", ctx).Return(mockTx, nil).Once()
		mockRepo.On("GetMemberForUpdate", ctx, mockTx, int64(1)).Return(current(), nil).Once()
		mockRepo.On("UpdateMember", ctx, mockTx, mock.MatchedBy(func(m *domain.Member) bool {
			return m.Name == "B" &&
				m.PhoneNumber == "010-1234-5678" &&
				m.StartDate.Equal(domain.NewDate(2023, 1, 1)) &&
				m.EndDate != nil && m.EndDate.Equal(domain.NewDate(2023, 12, 31))
		})).Return(nil).Once()
		mockTx.On("Commit").Return(nil).Once()
		mockTx.On("Rollback").Return(nil).Maybe()

		updated, err := svc.UpdateMember(ctx, 1, domain.MemberPatch{Name: strRef("B")})

		require.NoError(t, err)
		assert.Equal(t, "B", updated.Name)
		assert.Equal(t, "010-1234-5678", updated.PhoneNumber)
		mockRepo.AssertExpectations(t)
		mockTx.AssertExpectations(t)
	})

	t.Run("Member not found", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		mockTx := new(mocks.MockDBTX)
		svc := NewMemberService(mockRepo)

		mockRepo.On("BeginTx", ctx).Return(mockTx, nil).Once()
		mockRepo.On("GetMemberForUpdate", ctx, mockTx, int64(9)).Return(nil, repository.ErrMemberNotFound).Once()
		mockTx.On("Rollback").Return(nil).Once()

		_, err := svc.UpdateMember(ctx, 9, domain.MemberPatch{Name: strRef("B")})
		assert.ErrorIs(t, err, repository.ErrMemberNotFound)
		mockRepo.AssertExpectations(t)
		mockTx.AssertExpectations(t)
	})

	t.Run("Phone taken by another member", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		mockTx := new(mocks.MockDBTX)
		svc := NewMemberService(mockRepo)

		mockRepo.On("BeginTx", ctx).Return(mockTx, nil).Once()
		mockRepo.On("GetMemberForUpdate", ctx, mockTx, int64(1)).Return(current(), nil).Once()
		mockRepo.On("UpdateMember", ctx, mockTx, mock.AnythingOfType("*domain.Member")).Return(repository.ErrPhoneConflict).Once()
		mockTx.On("Rollback").Return(nil).Once()

		_, err := svc.UpdateMember(ctx, 1, domain.MemberPatch{PhoneNumber: strRef("010-9999-5678")})
		assert.ErrorIs(t, err, ErrPhoneAlreadyRegistered)
		mockTx.AssertNotCalled(t, "Commit")
		mockRepo.AssertExpectations(t)
	})

	t.Run("New start date after current end date rejected", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		mockTx := new(mocks.MockDBTX)
		svc := NewMemberService(mockRepo)

		mockRepo.On("BeginTx", ctx).Return(mockTx, nil).Once()
		mockRepo.On("GetMemberForUpdate", ctx, mockTx, int64(1)).Return(current(), nil).Once()
		mockTx.On("Rollback").Return(nil).Once()

		_, err := svc.UpdateMember(ctx, 1, domain.MemberPatch{StartDate: dateRef(2024, 6, 1)})
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
		mockRepo.AssertNotCalled(t, "UpdateMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Malformed phone rejected before the transaction", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		svc := NewMemberService(mockRepo)

		_, err := svc.UpdateMember(ctx, 1, domain.MemberPatch{PhoneNumber: strRef("02-123-4567")})
		assert.ErrorIs(t, err, domain.ErrInvalidPhoneFormat)
		mockRepo.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("Empty patch returns the current member", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		mockTx := new(mocks.MockDBTX)
		svc := NewMemberService(mockRepo)

		mockRepo.On("BeginTx", ctx).Return(mockTx, nil).Once()
		mockRepo.On("GetMemberForUpdate", ctx, mockTx, int64(1)).Return(current(), nil).Once()
		mockTx.On("Rollback").Return(nil).Once()

		m, err := svc.UpdateMember(ctx, 1, domain.MemberPatch{})
		require.NoError(t, err)
		assert.Equal(t, "A", m.Name)
		mockRepo.AssertNotCalled(t, "UpdateMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Begin transaction fails", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		svc := NewMemberService(mockRepo)
		mockRepo.On("BeginTx", ctx).Return(nil, errors.New("pool exhausted")).Once()

		_, err := svc.UpdateMember(ctx, 1, domain.MemberPatch{Name: strRef("B")})
		assert.ErrorContains(t, err, "could not update member")
	})
}

func TestMemberService_DeleteThenGet(t *testing.T) {
	ctx := context.TODO()
	mockRepo := new(mocks.MockMemberRepository)
	svc := NewMemberService(mockRepo)

	mockRepo.On("DeleteMember", ctx, int64(1)).Return(nil).Once()
	mockRepo.On("GetMemberByID", ctx, int64(1)).Return(nil, repository.ErrMemberNotFound).Once()
	mockRepo.On("DeleteMember", ctx, int64(1)).Return(repository.ErrMemberNotFound).Once()

	require.NoError(t, svc.DeleteMember(ctx, 1))
	_, err := svc.GetMember(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
	assert.ErrorIs(t, svc.DeleteMember(ctx, 1), repository.ErrMemberNotFound)
	mockRepo.AssertExpectations(t)
}

func TestMemberService_CheckIn(t *testing.T) {
	ctx := context.TODO()
	unlimited := domain.Member{ID: 1, Name: "A", PhoneNumber: "010-1234-5678", StartDate: domain.NewDate(2023, 1, 1)}

	t.Run("Single unlimited member is admitted", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		outcomes := &recordedOutcomes{}
		svc := NewMemberService(mockRepo, WithCheckInRecorder(outcomes))
		mockRepo.On("FindMembersByPhoneSuffix", ctx, "5678").Return([]domain.Member{unlimited}, nil).Once()

		res, err := svc.CheckInAt(ctx, "5678", domain.NewDate(2023, 6, 1))

		require.NoError(t, err)
		assert.Equal(t, domain.StatusUnlimited, res.Status)
		assert.Equal(t, "unlimited membership", res.RemainingMessage)
		assert.Equal(t, "Welcome, A!", res.WelcomeMessage)
		assert.Equal(t, int64(1), res.Member.ID)
		assert.Equal(t, []string{"unlimited"}, []string(*outcomes))
		mockRepo.AssertExpectations(t)
	})

	t.Run("Shared suffix is ambiguous", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		outcomes := &recordedOutcomes{}
		svc := NewMemberService(mockRepo, WithCheckInRecorder(outcomes))
		members := []domain.Member{
			{ID: 1, Name: "A", PhoneNumber: "010-1111-1234", StartDate: domain.NewDate(2023, 1, 1)},
			{ID: 2, Name: "B", PhoneNumber: "010-2222-1234", StartDate: domain.NewDate(2023, 1, 1), EndDate: dateRef(2024, 1, 1)},
		}
		mockRepo.On("FindMembersByPhoneSuffix", ctx, "1234").Return(members, nil).Once()

		res, err := svc.CheckIn(ctx, "1234")

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrAmbiguousMember)
		var ambiguous *AmbiguousMemberError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, []domain.Candidate{
			{ID: 1, Name: "A", Phone: "010-1111-1234"},
			{ID: 2, Name: "B", Phone: "010-2222-1234"},
		}, ambiguous.Candidates)
		assert.Equal(t, []string{"ambiguous"}, []string(*outcomes))
	})

	t.Run("No match", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		svc := NewMemberService(mockRepo)
		mockRepo.On("FindMembersByPhoneSuffix", ctx, "0000").Return([]domain.Member{}, nil).Once()

		_, err := svc.CheckIn(ctx, "0000")
		assert.ErrorIs(t, err, ErrNoSuchMember)
	})

	t.Run("Invalid suffix never reaches the repository", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		outcomes := &recordedOutcomes{}
		svc := NewMemberService(mockRepo, WithCheckInRecorder(outcomes))

		for _, digits := range []string{"123", "12345", "abcd", ""} {
			_, err := svc.CheckIn(ctx, digits)
			assert.ErrorIs(t, err, domain.ErrInvalidSuffix, digits)
		}
		mockRepo.AssertNotCalled(t, "FindMembersByPhoneSuffix", mock.Anything, mock.Anything)
		assert.Len(t, *outcomes, 4)
	})

	t.Run("Repository error is wrapped", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		svc := NewMemberService(mockRepo)
		mockRepo.On("FindMembersByPhoneSuffix", ctx, "5678").Return(nil, errors.New("db down")).Once()

		_, err := svc.CheckIn(ctx, "5678")
		assert.ErrorContains(t, err, "could not look up member")
		assert.NotErrorIs(t, err, ErrNoSuchMember)
	})

	t.Run("Today follows the configured clock and zone", func(t *testing.T) {
		mockRepo := new(mocks.MockMemberRepository)
		seoul := time.FixedZone("KST", 9*60*60)
		// 15:30 UTC on the 10th is already the 11th in Seoul.
		clock := func() time.Time { return time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC) }
		svc := NewMemberService(mockRepo, WithClock(clock), WithLocation(seoul))

		member := unlimited
		member.EndDate = dateRef(2024, 3, 11)
		mockRepo.On("FindMembersByPhoneSuffix", ctx, "5678").Return([]domain.Member{member}, nil).Once()

		res, err := svc.CheckIn(ctx, "5678")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusExpiresToday, res.Status)
		assert.Equal(t, "valid through today", res.RemainingMessage)
	})

	t.Run("Expired and active members", func(t *testing.T) {
		today := domain.NewDate(2024, 3, 15)
		tests := []struct {
			end         *domain.Date
			wantStatus  domain.Status
			wantMessage string
		}{
			{dateRef(2024, 3, 10), domain.StatusExpired, "expired 5 days ago"},
			{dateRef(2024, 3, 25), domain.StatusActive, "10 days left"},
		}
		for _, tt := range tests {
			mockRepo := new(mocks.MockMemberRepository)
			svc := NewMemberService(mockRepo)
			member := unlimited
			member.EndDate = tt.end
			mockRepo.On("FindMembersByPhoneSuffix", ctx, "5678").Return([]domain.Member{member}, nil).Once()

			res, err := svc.CheckInAt(ctx, "5678", today)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantMessage, res.RemainingMessage)
		}
	})
}
