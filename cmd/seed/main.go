// Command seed creates the first admin account and the default CMS pages.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/config"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/db"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/logging"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/pages"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/utils"
)

var defaultPages = []string{"News", "Jobs", "Bursaries", "Studying", "Career Advice", "NSFAS", "FAQ"}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	ctx := context.Background()
	if err := seedAdmin(ctx, gdb, logger, os.Getenv("SEED_ADMIN_EMAIL"), os.Getenv("SEED_ADMIN_PASSWORD")); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}
	if err := seedPages(ctx, gdb, pages.NewPageService(gdb, logger), logger); err != nil {
		logger.Fatal("seed pages", zap.Error(err))
	}
	logger.Info("seed complete")
}

func seedAdmin(ctx context.Context, gdb *gorm.DB, logger *zap.Logger, email, password string) error {
	if email == "" || password == "" {
		logger.Info("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set, skipping admin")
		return nil
	}
	var existing models.User
	err := gdb.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		logger.Info("admin already exists", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{Name: "Administrator", Email: email, Password: hash, Role: models.RoleAdmin}
	if err := gdb.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}
	logger.Info("admin created", zap.String("email", email))
	return nil
}

// seedPages only runs against an empty pages table.
func seedPages(ctx context.Context, gdb *gorm.DB, svc *pages.PageService, logger *zap.Logger) error {
	var n int64
	if err := gdb.WithContext(ctx).Model(&models.Page{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		logger.Info("pages already seeded", zap.Int64("count", n))
		return nil
	}
	for i, title := range defaultPages {
		title, order := title, i
		if _, err := svc.Create(ctx, pages.PageInput{Title: &title, Order: &order}); err != nil {
			return err
		}
	}
	logger.Info("default pages created", zap.Int("count", len(defaultPages)))
	return nil
}
