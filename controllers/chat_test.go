package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anirudh-svg/Peer-Lift/database"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newHandlerMockDB(t *testing.T) sqlmock.Sqlmock {
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

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return mock
}

func TestCreateAnonymousSessionHandler_RefreshUpdatesIPHash(t *testing.T) {
	mock := newHandlerMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM `anonymous_users` WHERE session_token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_token", "message_count", "last_activity"}).
			AddRow(3, "tok_abcdef12", 5, time.Now()))
	// Refresh must re-record the caller's hashed origin, not only activity
	mock.ExpectExec("UPDATE `anonymous_users` SET `ip_hash`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := httptest.NewRequest("POST", "/v1/anonymous/session",
		strings.NewReader(`{"session_token":"tok_abcdef12"}`))
	r.RemoteAddr = "203.0.113.9:51234"
	w := httptest.NewRecorder()

	CreateAnonymousSessionHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
