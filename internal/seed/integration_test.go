//go:build integration

package seed

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"

	"nestling/internal/config"
	"nestling/internal/database"
	"nestling/internal/models"
)

func parseDatabaseURLToConfig(dsn string) (*config.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	password := ""
	if u.User != nil {
		password, _ = u.User.Password()
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	dbname := strings.TrimPrefix(u.Path, "/")
	cfg := &config.Config{
		DBHost:       host,
		DBPort:       port,
		DBUser:       u.User.Username(),
		DBPassword:   password,
		DBName:       dbname,
		DBSSLMode:    "disable",
		Env:          "test",
		DBSchemaMode: "auto",
	}
	return cfg, nil
}

func TestIntegration_SeedPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration seed test")
	}
	cfg, err := parseDatabaseURLToConfig(dsn)
	if err != nil {
		t.Fatalf("failed parse dsn: %v", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	ctx := context.Background()
	if err := Clear(ctx, db); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := Reference(ctx, db); err != nil {
		t.Fatalf("reference seed failed: %v", err)
	}

	res, err := NewFactory(db, Options{Users: 10, Articles: 15, Events: 5, Comments: 20, Calendars: 2, MaxDays: 30}).Demo(ctx)
	if err != nil {
		t.Fatalf("demo seed failed: %v", err)
	}

	var cnt int64
	if err := db.Model(&models.Article{}).Count(&cnt).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if cnt != int64(res.Articles) {
		t.Fatalf("expected %d articles, got %d", res.Articles, cnt)
	}
	if err := Clear(ctx, db); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
}
