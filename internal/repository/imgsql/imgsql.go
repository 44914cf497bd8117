// Package imgsql keeps the images table in any database/sql backend (SQLite or PostgreSQL)
package imgsql

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

type SQLRepo struct {
	DB      *dbpg.DB
	Dialect Dialect
}

const imageColumns = `id, album, starred, filepath`

// rebind turns "?" placeholders into "$1, $2..." for PostgreSQL
func (p SQLRepo) rebind(query string) string {
	if p.Dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (p SQLRepo) exec(ctx context.Context) executor {
	return getExecutor(ctx, p.DB.Master)
}

func (p SQLRepo) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTransaction(ctx, p.DB.Master, fn)
}

func (p SQLRepo) Insert(ctx context.Context, n *model.Image) error {
	query := p.rebind(`INSERT INTO images (album, starred, filepath)
	VALUES (?, ?, ?)
	RETURNING id`)

	return p.exec(ctx).QueryRowContext(ctx, query, n.Album, n.Starred, n.Filepath).Scan(&n.ID)
}

func (p SQLRepo) FindByID(ctx context.Context, id int64) (*model.Image, error) {
	query := p.rebind(`SELECT ` + imageColumns + `
	FROM images
	WHERE id = ?`)

	image, err := scanImage(p.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrImageNotFound
		default:
			return nil, err // 500
		}
	}
	return image, nil
}

func (p SQLRepo) FindStarredByAlbum(ctx context.Context, album int64) (*model.Image, error) {
	query := p.rebind(`SELECT ` + imageColumns + `
	FROM images
	WHERE album = ? AND starred = ?
	ORDER BY id
	LIMIT 1`)

	image, err := scanImage(p.exec(ctx).QueryRowContext(ctx, query, album, true))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrNoStarredImage
		default:
			return nil, err // 500
		}
	}
	return image, nil
}

func (p SQLRepo) FindByAlbum(ctx context.Context, album int64, limit, offset int) ([]model.Image, error) {
	query := p.rebind(`SELECT ` + imageColumns + `
	FROM images
	WHERE album = ?
	ORDER BY id
	LIMIT ?
	OFFSET ?`)

	rows, err := p.exec(ctx).QueryContext(ctx, query, album, limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	images := make([]model.Image, 0, limit)
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *image)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return images, nil
}

func (p SQLRepo) Delete(ctx context.Context, id int64) (bool, error) {
	query := p.rebind(`DELETE FROM images
	WHERE id = ?`)

	res, err := p.exec(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return false, err // 500
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (p SQLRepo) UpdateStarred(ctx context.Context, id int64, starred bool) (*model.Image, error) {
	query := p.rebind(`UPDATE images SET starred = ?
	WHERE id = ?
	RETURNING ` + imageColumns)

	image, err := scanImage(p.exec(ctx).QueryRowContext(ctx, query, starred, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrImageNotFound // 404
		default:
			return nil, err // 500
		}
	}
	return image, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*model.Image, error) {
	var (
		image model.Image
		path  sql.NullString
	)
	if err := row.Scan(&image.ID, &image.Album, &image.Starred, &path); err != nil {
		return nil, err
	}
	image.Filepath = path.String
	return &image, nil
}
