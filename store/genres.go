package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"pollex.nl/bieb"
)

// GenreRepo is the repository facade for genres. Name is the natural key;
// its uniqueness is enforced by the schema constraint and translated into a
// Duplicate failure here, so concurrent inserts of the same name cannot
// race past a pre-check.
type GenreRepo struct {
	store *Store
}

func scanGenre(g *bieb.Genre) (ptrs, action) {
	var desc sql.NullString
	return ptrs{&g.ID, &g.Name, &desc},
		func() { g.Description = desc.String }
}

func booksOfGenre(id int64) squirrel.SelectBuilder {
	return squirrel.
		Select("b.id", "b.title", "b.isbn", "b.publication_year").
		From("books b").
		Join("books_genres bg ON b.id = bg.book_id").
		Where(squirrel.Eq{"bg.genre_id": id}).
		OrderBy("b.id")
}

// FindByID loads the genre aggregate: scalar fields plus the owned book
// set via the association join.
func (r *GenreRepo) FindByID(ctx context.Context, id int64) (*bieb.Genre, error) {
	const op = "find genre"

	conn, err := r.store.conn(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	genre, err := collectOne(ctx, conn, squirrel.
		Select("id", "name", "description").
		From("genres").
		Where(squirrel.Eq{"id": id}), scanGenre)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("genre", id)
	}
	if err != nil {
		return nil, dberr(op, err)
	}

	books, err := collect(ctx, conn, booksOfGenre(id), scanOwnedBook)
	if err != nil {
		return nil, dberr(op, err)
	}
	genre.SetBooks(books)

	return genre, nil
}

// FindByName is the natural-key lookup. The aggregate is as fully
// populated as a by-id load.
func (r *GenreRepo) FindByName(ctx context.Context, name string) (*bieb.Genre, error) {
	const op = "find genre by name"

	conn, err := r.store.conn(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	genre, err := collectOne(ctx, conn, squirrel.
		Select("id", "name", "description").
		From("genres").
		Where(squirrel.Eq{"name": name}), scanGenre)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &bieb.NotFoundError{Entity: "genre", Identifier: name}
	}
	if err != nil {
		return nil, dberr(op, err)
	}

	books, err := collect(ctx, conn, booksOfGenre(genre.ID), scanOwnedBook)
	if err != nil {
		return nil, dberr(op, err)
	}
	genre.SetBooks(books)

	return genre, nil
}

// FindAll returns genre scalars ordered by name; book back-sets are
// populated on the single-entity loads alone.
func (r *GenreRepo) FindAll(ctx context.Context) ([]bieb.Genre, error) {
	const op = "list genres"

	conn, err := r.store.conn(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	genres, err := collect(ctx, conn, squirrel.
		Select("id", "name", "description").
		From("genres").
		OrderBy("name"), scanGenre)
	if err != nil {
		return nil, dberr(op, err)
	}
	return genres, nil
}

// Save upserts the genre scalars and resynchronizes the association rows
// owned from the genre side, all in one transaction.
func (r *GenreRepo) Save(ctx context.Context, genre *bieb.Genre) error {
	const op = "save genre"

	return r.store.withTx(ctx, op, func(tx *sql.Tx) error {
		if genre.ID == 0 {
			if err := r.insert(ctx, tx, genre); err != nil {
				return err
			}
		} else if err := r.update(ctx, tx, genre); err != nil {
			return err
		}

		return r.resyncBooks(ctx, tx, genre)
	})
}

func (r *GenreRepo) insert(ctx context.Context, tx *sql.Tx, genre *bieb.Genre) error {
	sqlStr, args, err := squirrel.
		Insert("genres").
		Columns("name", "description").
		Values(genre.Name, nullable(genre.Description)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return dberr("insert genre", err)
	}

	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&genre.ID); err != nil {
		return r.classify("insert genre", genre, err)
	}
	return nil
}

func (r *GenreRepo) update(ctx context.Context, tx *sql.Tx, genre *bieb.Genre) error {
	res, err := squirrel.ExecContextWith(ctx, tx, squirrel.
		Update("genres").
		Set("name", genre.Name).
		Set("description", nullable(genre.Description)).
		Where(squirrel.Eq{"id": genre.ID}))
	if err != nil {
		return r.classify("update genre", genre, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dberr("update genre", err)
	}
	if n == 0 {
		return notFound("genre", genre.ID)
	}
	return nil
}

func (r *GenreRepo) classify(op string, genre *bieb.Genre, err error) error {
	if isUniqueViolation(err) {
		return &bieb.DuplicateError{Entity: "genre", Field: "name", Value: genre.Name}
	}
	return dberr(op, err)
}

// resyncBooks mirrors BookRepo.resyncGenres from the other owning side of
// the same association table.
func (r *GenreRepo) resyncBooks(ctx context.Context, tx *sql.Tx, genre *bieb.Genre) error {
	const op = "resync genre books"

	if _, err := squirrel.ExecContextWith(ctx, tx, squirrel.
		Delete("books_genres").
		Where(squirrel.Eq{"genre_id": genre.ID})); err != nil {
		return dberr(op, err)
	}

	books := genre.Books()
	if len(books) == 0 {
		return nil
	}

	ins := squirrel.Insert("books_genres").Columns("book_id", "genre_id")
	for _, bookID := range lo.Map(books, func(b bieb.Book, _ int) int64 { return b.ID }) {
		ins = ins.Values(bookID, genre.ID)
	}
	if _, err := squirrel.ExecContextWith(ctx, tx, ins); err != nil {
		return dberr(op, err)
	}
	return nil
}

// DeleteByID removes the genre and its association rows in one
// transaction, association rows first so no orphans survive.
func (r *GenreRepo) DeleteByID(ctx context.Context, id int64) error {
	const op = "delete genre"

	return r.store.withTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := squirrel.ExecContextWith(ctx, tx, squirrel.
			Delete("books_genres").
			Where(squirrel.Eq{"genre_id": id})); err != nil {
			return dberr(op, err)
		}

		res, err := squirrel.ExecContextWith(ctx, tx, squirrel.
			Delete("genres").
			Where(squirrel.Eq{"id": id}))
		if err != nil {
			return dberr(op, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return dberr(op, err)
		}
		if n == 0 {
			return notFound("genre", id)
		}
		return nil
	})
}
