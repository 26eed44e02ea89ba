package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestEnsureUser(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)
	avatar := "https://picsum.photos/id/64/200"

	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO Users (Email, FirstName, LastName, Mi, AvatarUrl) VALUES (?, ?, ?, ?, ?)")).
		WithArgs("ann@example.com", "Ann", "Lee", nil, avatar).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT Id FROM Users WHERE Email = ?")).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"Id"}).AddRow(4))

	id, err := repo.Ensure(context.Background(), NewUser{Email: "ann@example.com", FirstName: "Ann", LastName: "Lee", AvatarURL: &avatar})
	if err != nil {
		t.Fatal(err)
	}
	if id != 4 {
		t.Fatalf("id = %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureUserInsertFails(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO Users")).WillReturnError(errors.New("table missing"))

	if _, err := repo.Ensure(context.Background(), NewUser{Email: "x@example.com"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCountUsers(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(nil)
	if _, err := repo.Count(context.Background()); !errors.Is(err, ErrDBNotReady) {
		t.Fatalf("err = %v", err)
	}

	repo.SetDB(gdb)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM Users")).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))
	n, err := repo.Count(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}
}
