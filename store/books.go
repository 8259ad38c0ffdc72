package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"pollex.nl/bieb"
)

// BookRepo is the repository facade for books. A book save also rewrites
// the books_genres rows owned by the book, inside the same transaction.
type BookRepo struct {
	store *Store
}

func bookQuery() squirrel.SelectBuilder {
	return squirrel.
		Select("b.id", "b.title", "b.isbn", "b.publication_year",
			"b.author_id", "a.first_name", "a.last_name", "a.biography").
		From("books b").
		Join("authors a ON b.author_id = a.id")
}

func scanBook(b *bieb.Book) (ptrs, action) {
	var bio sql.NullString
	return ptrs{
			&b.ID, &b.Title, &b.ISBN, &b.PublicationYear,
			&b.Author.ID, &b.Author.FirstName, &b.Author.LastName, &bio,
		},
		func() { b.Author.Biography = bio.String }
}

func genresOfBook(id int64) squirrel.SelectBuilder {
	return squirrel.
		Select("g.id", "g.name", "g.description").
		From("genres g").
		Join("books_genres bg ON g.id = bg.genre_id").
		Where(squirrel.Eq{"bg.book_id": id}).
		OrderBy("g.id")
}

// FindByID loads the book aggregate: one joined row for the book and its
// author, then the genre set as a separate clean query rather than a
// row-multiplying join.
func (r *BookRepo) FindByID(ctx context.Context, id int64) (*bieb.Book, error) {
	const op = "find book"

	conn, err := r.store.conn(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	book, err := collectOne(ctx, conn, bookQuery().Where(squirrel.Eq{"b.id": id}), scanBook)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("book", id)
	}
	if err != nil {
		return nil, dberr(op, err)
	}

	genres, err := collect(ctx, conn, genresOfBook(id), scanGenre)
	if err != nil {
		return nil, dberr(op, err)
	}
	book.SetGenres(genres)

	return book, nil
}

// FindAll is the one joined bulk path. The author join is 1:1 so rows do
// not multiply today, but the result is still de-duplicated by first
// occurrence of the book id before the per-book genre sets are fetched.
func (r *BookRepo) FindAll(ctx context.Context) ([]bieb.Book, error) {
	const op = "list books"

	conn, err := r.store.conn(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := collect(ctx, conn, bookQuery().OrderBy("b.id"), scanBook)
	if err != nil {
		return nil, dberr(op, err)
	}

	books := lo.UniqBy(rows, func(b bieb.Book) int64 { return b.ID })
	for i := range books {
		genres, err := collect(ctx, conn, genresOfBook(books[i].ID), scanGenre)
		if err != nil {
			return nil, dberr(op, err)
		}
		books[i].SetGenres(genres)
	}

	return books, nil
}

// Save writes the scalar columns and resynchronizes the association table
// as one atomic unit: scalar write, delete association rows, reinsert from
// the in-memory set, commit. Any failure rolls the whole write back.
//
// The author reference must already carry an existing key; the caller
// checks that, the foreign key backstops it.
func (r *BookRepo) Save(ctx context.Context, book *bieb.Book) error {
	const op = "save book"

	return r.store.withTx(ctx, op, func(tx *sql.Tx) error {
		if book.ID == 0 {
			if err := r.insert(ctx, tx, book); err != nil {
				return err
			}
		} else if err := r.update(ctx, tx, book); err != nil {
			return err
		}

		return r.resyncGenres(ctx, tx, book)
	})
}

func (r *BookRepo) insert(ctx context.Context, tx *sql.Tx, book *bieb.Book) error {
	sqlStr, args, err := squirrel.
		Insert("books").
		Columns("title", "isbn", "publication_year", "author_id").
		Values(book.Title, book.ISBN, book.PublicationYear, book.Author.ID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return dberr("insert book", err)
	}

	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&book.ID); err != nil {
		return dberr("insert book", err)
	}
	return nil
}

func (r *BookRepo) update(ctx context.Context, tx *sql.Tx, book *bieb.Book) error {
	res, err := squirrel.ExecContextWith(ctx, tx, squirrel.
		Update("books").
		Set("title", book.Title).
		Set("isbn", book.ISBN).
		Set("publication_year", book.PublicationYear).
		Set("author_id", book.Author.ID).
		Where(squirrel.Eq{"id": book.ID}))
	if err != nil {
		return dberr("update book", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dberr("update book", err)
	}
	if n == 0 {
		return notFound("book", book.ID)
	}
	return nil
}

// resyncGenres replaces every association row for the book with the current
// in-memory set. Delete-then-reinsert instead of a diff: idempotent and
// correct however the set was mutated.
func (r *BookRepo) resyncGenres(ctx context.Context, tx *sql.Tx, book *bieb.Book) error {
	const op = "resync book genres"

	if _, err := squirrel.ExecContextWith(ctx, tx, squirrel.
		Delete("books_genres").
		Where(squirrel.Eq{"book_id": book.ID})); err != nil {
		return dberr(op, err)
	}

	genres := book.Genres()
	if len(genres) == 0 {
		return nil
	}

	ins := squirrel.Insert("books_genres").Columns("book_id", "genre_id")
	for _, genreID := range lo.Map(genres, func(g bieb.Genre, _ int) int64 { return g.ID }) {
		ins = ins.Values(book.ID, genreID)
	}
	if _, err := squirrel.ExecContextWith(ctx, tx, ins); err != nil {
		return dberr(op, err)
	}
	return nil
}

// DeleteByID removes the book and its association rows in one transaction,
// association rows first so no orphans survive.
func (r *BookRepo) DeleteByID(ctx context.Context, id int64) error {
	const op = "delete book"

	return r.store.withTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := squirrel.ExecContextWith(ctx, tx, squirrel.
			Delete("books_genres").
			Where(squirrel.Eq{"book_id": id})); err != nil {
			return dberr(op, err)
		}

		res, err := squirrel.ExecContextWith(ctx, tx, squirrel.
			Delete("books").
			Where(squirrel.Eq{"id": id}))
		if err != nil {
			return dberr(op, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return dberr(op, err)
		}
		if n == 0 {
			return notFound("book", id)
		}
		return nil
	})
}
