package mocks

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/ridloal/gym-membership-service/internal/member/repository"
)

// ErrStatementOnMockTx is returned by the statement methods of MockDBTX.
// Service tests hand the transaction to MockMemberRepository, which owns
// every query, so only Commit and Rollback are ever expected.
var ErrStatementOnMockTx = errors.New("mock transaction does not run statements")

// MockDBTX records the transaction lifecycle of a partial update.
type MockDBTX struct {
	mock.Mock
}

var _ repository.DBTX = (*MockDBTX)(nil)

func (m *MockDBTX) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, ErrStatementOnMockTx
}

func (m *MockDBTX) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, ErrStatementOnMockTx
}

func (m *MockDBTX) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, ErrStatementOnMockTx
}

// QueryRowContext has no error return; a nil row makes misuse fail loudly.
func (m *MockDBTX) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (m *MockDBTX) Commit() error {
	return m.Called().Error(0)
}

func (m *MockDBTX) Rollback() error {
	return m.Called().Error(0)
}
