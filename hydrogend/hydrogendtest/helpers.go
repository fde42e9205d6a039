package hydrogendtest

import (
	"log"
	"strings"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func NewMockDB(testDSN string) (*gorm.DB, sqlmock.Sqlmock) {
	testDB, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	mock.ExpectQuery("select sqlite_version()").
		WillReturnRows(sqlmock.NewRows([]string{"sqlite_version()"}).AddRow("3.40.1"))

	gormDB, err := gorm.Open(
		&sqlite.Dialector{
			DSN:  testDSN,
			Conn: testDB,
		},
		&gorm.Config{
			DisableAutomaticPing: true,
		},
	)
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

// NewSQLiteDB opens a private in-memory sqlite database, for tests that need
// real write semantics rather than scripted queries.
func NewSQLiteDB(name string) *gorm.DB {
	gormDB, err := gorm.Open(
		sqlite.Open("file:"+strings.ReplaceAll(name, "/", "_")+"?mode=memory&cache=shared"),
		&gorm.Config{},
	)
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening sqlite database", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when getting sql database", err)
	}

	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	return gormDB
}
