package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"portfolio/internal/config"
	"portfolio/internal/database"
)

func main() {
	var (
		versionID = flag.String("version-id", "", "要激活的简历版本 UUID（必填）")
		dbHost    = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort    = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName    = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser    = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass    = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode   = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	id := strings.TrimSpace(*versionID)
	if id == "" {
		log.Fatal("missing required flag: --version-id")
	}
	if _, err := uuid.Parse(id); err != nil {
		log.Fatalf("invalid version id %q: %v", id, err)
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	var version database.ResumeVersion
	switch err := db.Where("version_id = ?", id).First(&version).Error; {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Fatalf("resume version %q not found", id)
	default:
		log.Fatalf("query resume version: %v", err)
	}

	if version.IsActive {
		fmt.Printf("版本 %s 已是激活状态，无需操作。\n", id)
		return
	}

	// 同一配置下最多一个激活版本：先清掉旧的，再激活目标版本。
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.ResumeVersion{}).
			Where("config_id = ? AND is_active = ?", version.ConfigID, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate siblings: %w", err)
		}
		if err := tx.Model(&version).Update("is_active", true).Error; err != nil {
			return fmt.Errorf("activate version: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("activate resume version: %v", err)
	}

	fmt.Printf("已激活简历版本：\n")
	fmt.Printf("版本: %s\n", id)
	fmt.Printf("配置: %d\n", version.ConfigID)
	fmt.Printf("对象: %s\n", version.PdfPath)
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
