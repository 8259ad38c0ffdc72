package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"pollex.nl/bieb"
)

// AuthorRepo is the repository facade for authors. Authors own no
// association table, so saving one is a single-statement write.
type AuthorRepo struct {
	store *Store
}

func scanAuthor(a *bieb.Author) (ptrs, action) {
	var bio sql.NullString
	return ptrs{&a.ID, &a.FirstName, &a.LastName, &bio},
		func() { a.Biography = bio.String }
}

// scanOwnedBook reads the scalar columns of a book inside a back-relation
// set. Author and genre set stay empty there.
func scanOwnedBook(b *bieb.Book) (ptrs, action) {
	return ptrs{&b.ID, &b.Title, &b.ISBN, &b.PublicationYear}, nil
}

// FindByID loads the author aggregate: scalar fields plus the owned book
// set, fetched as a separate clean query on the same connection.
func (r *AuthorRepo) FindByID(ctx context.Context, id int64) (*bieb.Author, error) {
	const op = "find author"

	conn, err := r.store.conn(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	author, err := collectOne(ctx, conn, squirrel.
		Select("id", "first_name", "last_name", "biography").
		From("authors").
		Where(squirrel.Eq{"id": id}), scanAuthor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("author", id)
	}
	if err != nil {
		return nil, dberr(op, err)
	}

	books, err := collect(ctx, conn, squirrel.
		Select("id", "title", "isbn", "publication_year").
		From("books").
		Where(squirrel.Eq{"author_id": id}).
		OrderBy("id"), scanOwnedBook)
	if err != nil {
		return nil, dberr(op, err)
	}
	author.SetBooks(books)

	return author, nil
}

// FindAll returns author scalars only; the book back-set is populated on
// FindByID alone.
func (r *AuthorRepo) FindAll(ctx context.Context) ([]bieb.Author, error) {
	const op = "list authors"

	conn, err := r.store.conn(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	authors, err := collect(ctx, conn, squirrel.
		Select("id", "first_name", "last_name", "biography").
		From("authors").
		OrderBy("id"), scanAuthor)
	if err != nil {
		return nil, dberr(op, err)
	}
	return authors, nil
}

// Save inserts the author when it carries no key yet, assigning the
// generated key before returning, and updates it otherwise. Updating a key
// that is gone is NotFound, never a silent insert.
func (r *AuthorRepo) Save(ctx context.Context, author *bieb.Author) error {
	const op = "save author"

	conn, err := r.store.conn(ctx, op)
	if err != nil {
		return err
	}
	defer conn.Close()

	if author.ID == 0 {
		return r.insert(ctx, conn, author)
	}
	return r.update(ctx, conn, author)
}

func (r *AuthorRepo) insert(ctx context.Context, conn *sql.Conn, author *bieb.Author) error {
	sqlStr, args, err := squirrel.
		Insert("authors").
		Columns("first_name", "last_name", "biography").
		Values(author.FirstName, author.LastName, nullable(author.Biography)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return dberr("insert author", err)
	}

	if err := conn.QueryRowContext(ctx, sqlStr, args...).Scan(&author.ID); err != nil {
		return dberr("insert author", err)
	}
	return nil
}

func (r *AuthorRepo) update(ctx context.Context, conn *sql.Conn, author *bieb.Author) error {
	res, err := squirrel.ExecContextWith(ctx, conn, squirrel.
		Update("authors").
		Set("first_name", author.FirstName).
		Set("last_name", author.LastName).
		Set("biography", nullable(author.Biography)).
		Where(squirrel.Eq{"id": author.ID}))
	if err != nil {
		return dberr("update author", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dberr("update author", err)
	}
	if n == 0 {
		return notFound("author", author.ID)
	}
	return nil
}

// DeleteByID removes the author row. Dependent books are never cascaded:
// the foreign key rejects the delete and that surfaces as a database
// failure.
func (r *AuthorRepo) DeleteByID(ctx context.Context, id int64) error {
	const op = "delete author"

	conn, err := r.store.conn(ctx, op)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := squirrel.ExecContextWith(ctx, conn, squirrel.
		Delete("authors").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return dberr(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dberr(op, err)
	}
	if n == 0 {
		return notFound("author", id)
	}
	return nil
}
