// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/db"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/utils"
)

// Open returns a migrated in-memory SQLite database private to the test.
// A single connection serializes access, like one Postgres row lock would.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// Password is the plain-text password of every user created by CreateUser.
const Password = "secret123"

func CreateUser(t testing.TB, gdb *gorm.DB, role models.Role) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(Password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	id := uuid.New()
	u := &models.User{
		ID:       id,
		Name:     "User " + id.String()[:8],
		Email:    id.String()[:8] + "@example.com",
		Password: hash,
		Role:     role,
	}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CreateJob(t testing.TB, gdb *gorm.DB, owner *models.User, mutate ...func(*models.Job)) *models.Job {
	t.Helper()
	j := &models.Job{
		Title:        "Junior Data Processer",
		Company:      "etiMAX",
		Description:  "Extract, reconstruct and clean datasets from spreadsheets, databases and reports.",
		Location:     "Sandton",
		JobType:      "Full-time",
		Category:     "Technology",
		ContactEmail: "careers@etimax.example",
		PostedByID:   owner.ID,
	}
	for _, m := range mutate {
		m(j)
	}
	if err := gdb.Create(j).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return j
}
