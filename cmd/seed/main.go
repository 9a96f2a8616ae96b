package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/ridloal/gym-membership-service/internal/member/domain"
	memberRepo "github.com/ridloal/gym-membership-service/internal/member/repository"
	memberService "github.com/ridloal/gym-membership-service/internal/member/service"
	"github.com/ridloal/gym-membership-service/internal/platform/config"
	"github.com/ridloal/gym-membership-service/internal/platform/database"
	"github.com/ridloal/gym-membership-service/internal/platform/logger"
)

type sample struct {
	name      string
	phone     string
	startDays int  // relative to today
	endDays   *int // nil for unlimited
}

func days(n int) *int { return &n }

// Covers every check-in status, plus two members sharing the suffix 1234.
var samples = []sample{
	{name: "Kim Minjun", phone: "010-1111-5678", startDays: -30},
	{name: "Lee Seoyeon", phone: "010-2222-1234", startDays: -60, endDays: days(10)},
	{name: "Park Jiho", phone: "010-3333-1234", startDays: -90, endDays: days(0)},
	{name: "Choi Yuna", phone: "010-4444-9012", startDays: -120, endDays: days(-5)},
}

func main() {
	cfg, err := config.Load("8081")
	if err != nil {
		logger.Error("Failed to load config", err)
		os.Exit(1)
	}
	logger.Setup(os.Stdout, cfg.LogLevel)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		logger.Error("Failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := memberService.NewMemberService(memberRepo.NewPostgresMemberRepository(db))
	today := domain.DateOf(time.Now().In(cfg.Location))

	created := 0
	for _, s := range samples {
		start := today.AddDays(s.startDays)
		req := domain.CreateMemberRequest{Name: s.name, PhoneNumber: s.phone, StartDate: &start}
		if s.endDays != nil {
			end := today.AddDays(*s.endDays)
			req.EndDate = &end
		}

		member, err := svc.Register(ctx, req)
		if errors.Is(err, memberService.ErrPhoneAlreadyRegistered) {
			logger.Info("Seed member already present", "phone_number", s.phone)
			continue
		}
		if err != nil {
			logger.Error("Failed to seed member", err, "phone_number", s.phone)
			os.Exit(1)
		}
		created++
		logger.Info("Seeded member", "member_id", member.ID, "name", member.Name)
	}
	logger.Info("Seed completed", "created", created, "total", len(samples))
}
