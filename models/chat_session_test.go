package models

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func counselorRow(accountID uint, verified bool, maxSessions int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "account_id", "is_verified", "max_concurrent_sessions"}).
		AddRow(1, accountID, verified, maxSessions)
}

func sessionRow(id uint, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "anonymous_user_id", "status"}).
		AddRow(id, 2, status)
}

func TestClaimSession_Success(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `counselors` WHERE account_id(.+)FOR UPDATE").
		WillReturnRows(counselorRow(9, true, 3))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `chat_sessions`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(2))
	mock.ExpectQuery("SELECT (.+) FROM `chat_sessions` WHERE(.+)FOR UPDATE").
		WillReturnRows(sessionRow(5, SessionWaiting))
	mock.ExpectExec("UPDATE `chat_sessions` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := ClaimSession(db, 5, 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectMet(t, mock)
}

func TestClaimSession_Unverified(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `counselors` WHERE account_id(.+)FOR UPDATE").
		WillReturnRows(counselorRow(9, false, 3))
	mock.ExpectRollback()

	if err := ClaimSession(db, 5, 9); !errors.Is(err, ErrCounselorUnverified) {
		t.Fatalf("expected ErrCounselorUnverified, got %v", err)
	}
	expectMet(t, mock)
}

func TestClaimSession_CapacityExceeded(t *testing.T) {
	db, mock := newMockDB(t)

	// Already holding max_concurrent_sessions active sessions
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `counselors` WHERE account_id(.+)FOR UPDATE").
		WillReturnRows(counselorRow(9, true, 3))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `chat_sessions`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(3))
	mock.ExpectRollback()

	if err := ClaimSession(db, 5, 9); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	expectMet(t, mock)
}

func TestClaimSession_NotWaitingHasNoSideEffects(t *testing.T) {
	for _, status := range []string{SessionActive, SessionEnded} {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM `counselors` WHERE account_id(.+)FOR UPDATE").
			WillReturnRows(counselorRow(9, true, 3))
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `chat_sessions`").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM `chat_sessions` WHERE(.+)FOR UPDATE").
			WillReturnRows(sessionRow(5, status))
		// No UPDATE expectation: the claim must roll back without writes
		mock.ExpectRollback()

		if err := ClaimSession(db, 5, 9); !errors.Is(err, ErrSessionNotAvailable) {
			t.Fatalf("status %s: expected ErrSessionNotAvailable, got %v", status, err)
		}
		expectMet(t, mock)
	}
}

func TestEndSession_RestagesMessages(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `chat_sessions` WHERE(.+)FOR UPDATE").
		WillReturnRows(sessionRow(5, SessionActive))
	mock.ExpectExec("UPDATE `chat_sessions` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `messages` SET `expires_at`").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	if err := EndSession(db, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectMet(t, mock)
}

func TestExtendSession_MonotonicGuard(t *testing.T) {
	db, mock := newMockDB(t)

	// The expiry column only moves forward via GREATEST
	mock.ExpectExec("UPDATE `chat_sessions` SET (.+)GREATEST\\(expires_at").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := ExtendSession(db, 5, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectMet(t, mock)
}

func TestActiveSessionCount_DerivedFromStatus(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `chat_sessions` WHERE counselor_id(.+)status").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(2))

	c := Counselor{AccountID: 9}
	got, err := c.ActiveSessionCount(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 active sessions, got %d", got)
	}
	expectMet(t, mock)
}

func anonymousUserRow(id uint, count int, lastActivity time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "session_token", "message_count", "last_activity"}).
		AddRow(id, "tok_abcdef12", count, lastActivity)
}

func TestAppendVisitorMessage_Success(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `anonymous_users` WHERE(.+)FOR UPDATE").
		WillReturnRows(anonymousUserRow(3, DailyMessageLimit-1, now))
	mock.ExpectExec("INSERT INTO `messages`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("UPDATE `anonymous_users` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `chat_sessions` SET (.+)GREATEST\\(expires_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg, sentToday, err := AppendVisitorMessage(db, 3, 5, "hello", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentToday != DailyMessageLimit {
		t.Errorf("expected counter %d, got %d", DailyMessageLimit, sentToday)
	}
	if msg.ID != 7 || msg.SenderType != SenderAnonymous || msg.SenderID != "tok_abcdef12" {
		t.Errorf("unexpected message: %+v", msg)
	}
	expectMet(t, mock)
}

func TestAppendVisitorMessage_QuotaBoundaryRejectsWithoutInsert(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	// Counter already at the limit: no INSERT may happen
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `anonymous_users` WHERE(.+)FOR UPDATE").
		WillReturnRows(anonymousUserRow(3, DailyMessageLimit, now))
	mock.ExpectRollback()

	if _, _, err := AppendVisitorMessage(db, 3, 5, "hello", now); !errors.Is(err, ErrDailyQuotaExceeded) {
		t.Fatalf("expected ErrDailyQuotaExceeded, got %v", err)
	}
	expectMet(t, mock)
}

func TestAppendVisitorMessage_StaleCounterResetsAcrossDay(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	// A full counter from yesterday charges as 1 today
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `anonymous_users` WHERE(.+)FOR UPDATE").
		WillReturnRows(anonymousUserRow(3, DailyMessageLimit, now.AddDate(0, 0, -1)))
	mock.ExpectExec("INSERT INTO `messages`").
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec("UPDATE `anonymous_users` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `chat_sessions` SET (.+)GREATEST\\(expires_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, sentToday, err := AppendVisitorMessage(db, 3, 5, "hello", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentToday != 1 {
		t.Errorf("expected counter 1 after day rollover, got %d", sentToday)
	}
	expectMet(t, mock)
}
