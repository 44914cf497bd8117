package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/DavidRambo/image-microservice/internal/repository/imgsql"
	"github.com/DavidRambo/image-microservice/internal/repository/migrations"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

func TestOpenSQLite_FileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.db")
	ctx := context.Background()

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db, string(imgsql.SQLite)))

	repo := NewImageRepo(&dbpg.DB{Master: db}, imgsql.SQLite)
	img := &model.Image{Album: 4, Starred: true, Filepath: "images/a.gif"}
	require.NoError(t, repo.Insert(ctx, img))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	repo = NewImageRepo(&dbpg.DB{Master: db}, imgsql.SQLite)
	got, err := repo.FindByID(ctx, img.ID)
	require.NoError(t, err)
	require.Equal(t, *img, *got)
}

func TestDialectFromConfig(t *testing.T) {
	cfg := config.New()
	cfg.EnableEnv("")

	tests := []struct {
		driver  string
		want    imgsql.Dialect
		wantErr bool
	}{
		{"", imgsql.SQLite, false},
		{"sqlite", imgsql.SQLite, false},
		{"postgres", imgsql.Postgres, false},
		{"mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Setenv("DB_DRIVER", tt.driver)

			got, err := DialectFromConfig(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
