package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/movie"
)

type movieRow struct {
	ID          int64   `db:"id"`
	Title       string  `db:"title"`
	DurationMin int     `db:"duration_min"`
	PosterURL   *string `db:"poster_url"`
	Synopsis    *string `db:"synopsis"`
}

func (r *movieRow) toEntity() *movie.Movie {
	m := &movie.Movie{ID: r.ID, Title: r.Title, DurationMin: r.DurationMin}
	if r.PosterURL != nil {
		m.PosterURL = *r.PosterURL
	}
	if r.Synopsis != nil {
		m.Synopsis = *r.Synopsis
	}
	return m
}

// MovieRepository は映画カタログのPostgreSQL実装
type MovieRepository struct{ db *sqlx.DB }

func NewMovieRepository(db *sqlx.DB) *MovieRepository { return &MovieRepository{db: db} }

func (r *MovieRepository) GetByID(ctx context.Context, id int64) (*movie.Movie, error) {
	var row movieRow
	query := `SELECT id, title, duration_min, poster_url, synopsis FROM movies WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, movie.ErrMovieNotFound
		}
		return nil, fmt.Errorf("映画取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *MovieRepository) List(ctx context.Context) ([]*movie.Movie, error) {
	var rows []movieRow
	query := `SELECT id, title, duration_min, poster_url, synopsis FROM movies ORDER BY title ASC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("映画一覧取得に失敗: %w", err)
	}
	movies := make([]*movie.Movie, len(rows))
	for i := range rows {
		movies[i] = rows[i].toEntity()
	}
	return movies, nil
}

var _ movie.Repository = (*MovieRepository)(nil)
