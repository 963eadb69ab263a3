package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"

	"tasklist/internal/adapter/database/postgres"
	"tasklist/internal/adapter/database/postgres/repository"
	"tasklist/internal/core/domain"
	"tasklist/internal/core/port"
)

var todoRowColumns = []string{"id", "title", "description", "completed", "priority", "category", "created_at", "due_date", "order", "owner_id"}

type PostgresRepositoryTestSuite struct {
	suite.Suite
	mock  pgxmock.PgxPoolIface
	users port.UserRepository
	todos port.TodoRepository
	ctx   context.Context
}

func (s *PostgresRepositoryTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	s.Require().NoError(err)

	db := postgres.Wrap(mock)

	s.mock = mock
	s.users = repository.NewUserRepository(db, nil)
	s.todos = repository.NewTodoRepository(db, nil)
	s.ctx = context.Background()
}

func (s *PostgresRepositoryTestSuite) TearDownTest() {
	Expect(s.mock.ExpectationsWereMet()).To(Succeed())
	s.mock.Close()
}

func TestPostgresRepositoryTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(PostgresRepositoryTestSuite))
}

func (s *PostgresRepositoryTestSuite) TestUserCreate_UniqueViolationOnPhoneIsConflict() {
	phone := "13800138000"

	s.mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "digest", &phone, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_phone_number_key"})

	_, err := s.users.Create(s.ctx, domain.User{Username: "alice", PasswordHash: "digest", PhoneNumber: &phone})

	var conflict *domain.ConflictError
	Expect(errors.As(err, &conflict)).To(BeTrue())
	Expect(conflict.Field).To(Equal(domain.FieldPhoneNumber))
}

func (s *PostgresRepositoryTestSuite) TestUserCreate_UniqueViolationOnUsernameIsConflict() {
	s.mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"})

	_, err := s.users.Create(s.ctx, domain.User{Username: "alice", PasswordHash: "digest"})

	var conflict *domain.ConflictError
	Expect(errors.As(err, &conflict)).To(BeTrue())
	Expect(conflict.Field).To(Equal(domain.FieldUsername))
}

func (s *PostgresRepositoryTestSuite) TestUserGetByUsername_NoRowsIsNotFound() {
	s.mock.ExpectQuery("SELECT id, username, password_hash, phone_number, created_at FROM users").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password_hash", "phone_number", "created_at"}))

	_, err := s.users.GetByUsername(s.ctx, "ghost")

	Expect(errors.Is(err, domain.ErrNotFound)).To(BeTrue())
}

func (s *PostgresRepositoryTestSuite) TestTodoCreate_ReturnsInsertedRow() {
	createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	s.mock.ExpectQuery("INSERT INTO todos").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(todoRowColumns).
			AddRow(int64(10), "write report", (*string)(nil), false, "medium", "", createdAt, (*time.Time)(nil), 0, int64(1)))

	todo, err := s.todos.Create(s.ctx, domain.Todo{Title: "write report", Priority: domain.PriorityMedium, OwnerID: 1, CreatedAt: createdAt})

	Expect(err).ToNot(HaveOccurred())
	Expect(todo.ID).To(Equal(int64(10)))
	Expect(todo.Priority).To(Equal(domain.PriorityMedium))
	Expect(todo.Description).To(BeNil())
	Expect(todo.DueDate).To(BeNil())
}

func (s *PostgresRepositoryTestSuite) TestTodoUpdate_ForeignTodoIsNotFound() {
	s.mock.ExpectQuery("UPDATE todos SET").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), int64(7), int64(2)).
		WillReturnRows(pgxmock.NewRows(todoRowColumns))

	_, err := s.todos.Update(s.ctx, domain.Todo{ID: 7, OwnerID: 2, Title: "x", Priority: domain.PriorityLow})

	Expect(errors.Is(err, domain.ErrNotFound)).To(BeTrue())
}

func (s *PostgresRepositoryTestSuite) TestTodoDelete_NoRowsIsNotFound() {
	s.mock.ExpectExec("DELETE FROM todos").
		WithArgs(int64(5), int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.todos.Delete(s.ctx, 1, 5)

	Expect(err).To(MatchError(domain.ErrNotFound))
}

func (s *PostgresRepositoryTestSuite) TestTodoDeleteCompleted_ReturnsCount() {
	s.mock.ExpectExec("DELETE FROM todos").
		WithArgs(true, int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	count, err := s.todos.DeleteCompleted(s.ctx, 1)

	Expect(err).ToNot(HaveOccurred())
	Expect(count).To(Equal(int64(4)))
}

func (s *PostgresRepositoryTestSuite) TestTodoList_ZeroLimitSkipsQuery() {
	todos, err := s.todos.ListByOwner(s.ctx, 1, 0, 0)

	Expect(err).ToNot(HaveOccurred())
	Expect(todos).To(BeEmpty())
}

func (s *PostgresRepositoryTestSuite) TestTodoList_StorageFailurePropagates() {
	boom := errors.New("connection reset")

	s.mock.ExpectQuery("SELECT .* FROM todos").
		WithArgs(int64(1)).
		WillReturnError(boom)

	_, err := s.todos.ListByOwner(s.ctx, 1, 0, 10)

	Expect(errors.Is(err, boom)).To(BeTrue())
}
