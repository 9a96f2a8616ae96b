package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ridloal/gym-membership-service/internal/member/domain"
	"github.com/ridloal/gym-membership-service/internal/platform/database"
	"github.com/ridloal/gym-membership-service/internal/platform/logger"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrPhoneConflict       = errors.New("member with this phone number already exists")
	ErrConstraintViolation = errors.New("member violates a database constraint")
)

type MemberRepository interface {
	CreateMember(ctx context.Context, member *domain.Member) error
	GetMemberByID(ctx context.Context, id int64) (*domain.Member, error)
	ListMembers(ctx context.Context, offset, limit int) ([]domain.Member, error)
	DeleteMember(ctx context.Context, id int64) error
	FindMembersByPhoneSuffix(ctx context.Context, digits string) ([]domain.Member, error)

	// Partial updates run inside a transaction holding a row lock.
	BeginTx(ctx context.Context) (DBTX, error)
	GetMemberForUpdate(ctx context.Context, dbops DBTX, id int64) (*domain.Member, error)
	UpdateMember(ctx context.Context, dbops DBTX, member *domain.Member) error

	Ping(ctx context.Context) error
}

// DBTX is satisfied by *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
	Commit() error
	Rollback() error
}

const memberColumns = `id, name, phone_number, start_date, end_date, created_at, updated_at`

type postgresMemberRepository struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{
		db:     db,
		tracer: otel.Tracer("gym-membership-service/member/repository"),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner) (*domain.Member, error) {
	var (
		m         domain.Member
		startDate time.Time
		endDate   sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.Name, &m.PhoneNumber, &startDate, &endDate, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.StartDate = domain.DateOf(startDate)
	if endDate.Valid {
		end := domain.DateOf(endDate.Time)
		m.EndDate = &end
	}
	return &m, nil
}

func nullableDate(d *domain.Date) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time(), Valid: true}
}

// translateWriteError maps constraint violations to repository errors so
// storage-engine text never leaves this package.
func translateWriteError(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return ErrPhoneConflict
	case database.IsCheckViolation(err):
		return ErrConstraintViolation
	default:
		return err
	}
}

func (r *postgresMemberRepository) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(
		append(attrs, attribute.String("db.system", "postgresql"), attribute.String("db.sql.table", "members"))...,
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrMemberNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *postgresMemberRepository) CreateMember(ctx context.Context, member *domain.Member) (err error) {
	ctx, span := r.startSpan(ctx, "members.create")
	defer func() { endSpan(span, err) }()

	query := `INSERT INTO members (name, phone_number, start_date, end_date, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`

	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	err = r.db.QueryRowContext(ctx, query,
		member.Name, member.PhoneNumber, member.StartDate.Time(), nullableDate(member.EndDate), member.CreatedAt, member.UpdatedAt,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		translated := translateWriteError(err)
		if errors.Is(translated, ErrPhoneConflict) {
			logger.Warn("CreateMember: unique violation on phone_number")
			return translated
		}
		logger.Error("CreateMember: failed to insert member", err)
		return translated
	}
	span.SetAttributes(attribute.Int64("member.id", member.ID))
	return nil
}

func (r *postgresMemberRepository) GetMemberByID(ctx context.Context, id int64) (_ *domain.Member, err error) {
	ctx, span := r.startSpan(ctx, "members.get", attribute.Int64("member.id", id))
	defer func() { endSpan(span, err) }()

	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		logger.Error("GetMemberByID: query failed", err, "member_id", id)
		return nil, err
	}
	return m, nil
}

func (r *postgresMemberRepository) ListMembers(ctx context.Context, offset, limit int) (_ []domain.Member, err error) {
	ctx, span := r.startSpan(ctx, "members.list", attribute.Int("offset", offset), attribute.Int("limit", limit))
	defer func() { endSpan(span, err) }()

	query := `SELECT ` + memberColumns + ` FROM members ORDER BY id ASC OFFSET $1 LIMIT $2`
	return r.queryMembers(ctx, "ListMembers", query, offset, limit)
}

func (r *postgresMemberRepository) FindMembersByPhoneSuffix(ctx context.Context, digits string) (_ []domain.Member, err error) {
	if err := domain.ValidateSuffix(digits); err != nil {
		return nil, err
	}
	ctx, span := r.startSpan(ctx, "members.find_by_phone_suffix")
	defer func() { endSpan(span, err) }()

	// Only the trailing group of 010-DDDD-DDDD can match; digits hold no
	// LIKE wildcards once validated.
	query := `SELECT ` + memberColumns + ` FROM members WHERE phone_number LIKE $1 ORDER BY id ASC`
	return r.queryMembers(ctx, "FindMembersByPhoneSuffix", query, "%-"+digits)
}

func (r *postgresMemberRepository) queryMembers(ctx context.Context, op, query string, args ...interface{}) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error(op+": query failed", err)
		return nil, err
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			logger.Error(op+": scan failed", err)
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (r *postgresMemberRepository) DeleteMember(ctx context.Context, id int64) (err error) {
	ctx, span := r.startSpan(ctx, "members.delete", attribute.Int64("member.id", id))
	defer func() { endSpan(span, err) }()

	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		logger.Error("DeleteMember: exec failed", err, "member_id", id)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *postgresMemberRepository) BeginTx(ctx context.Context) (DBTX, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *postgresMemberRepository) GetMemberForUpdate(ctx context.Context, dbops DBTX, id int64) (_ *domain.Member, err error) {
	ctx, span := r.startSpan(ctx, "members.get_for_update", attribute.Int64("member.id", id))
	defer func() { endSpan(span, err) }()

	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1 FOR UPDATE`
	m, err := scanMember(dbops.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		logger.Error("GetMemberForUpdate: query failed", err, "member_id", id)
		return nil, err
	}
	return m, nil
}

func (r *postgresMemberRepository) UpdateMember(ctx context.Context, dbops DBTX, member *domain.Member) (err error) {
	ctx, span := r.startSpan(ctx, "members.update", attribute.Int64("member.id", member.ID))
	defer func() { endSpan(span, err) }()

	query := `UPDATE members SET name = $1, phone_number = $2, start_date = $3, end_date = $4, updated_at = $5
              WHERE id = $6`
	member.UpdatedAt = time.Now()
	res, err := dbops.ExecContext(ctx, query,
		member.Name, member.PhoneNumber, member.StartDate.Time(), nullableDate(member.EndDate), member.UpdatedAt, member.ID,
	)
	if err != nil {
		translated := translateWriteError(err)
		if errors.Is(translated, ErrPhoneConflict) {
			logger.Warn("UpdateMember: unique violation on phone_number", "member_id", member.ID)
			return translated
		}
		logger.Error("UpdateMember: exec failed", err, "member_id", member.ID)
		return translated
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *postgresMemberRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
