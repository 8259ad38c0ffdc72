package store

// The catalog schema is fixed: three entity tables plus one association
// table. books_genres rows have no identity of their own; they only mirror
// the in-memory genre/book set of whichever side was saved last. The unique
// pair constraint and the foreign keys are load-bearing: genre name
// collisions and dangling references must fail inside the writing
// transaction, not be discovered later.
const schema = `
CREATE TABLE IF NOT EXISTS authors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	biography TEXT
);

CREATE TABLE IF NOT EXISTS genres (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	description TEXT
);

CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	isbn TEXT NOT NULL,
	publication_year INTEGER NOT NULL,
	author_id INTEGER NOT NULL REFERENCES authors(id)
);

CREATE TABLE IF NOT EXISTS books_genres (
	book_id INTEGER NOT NULL REFERENCES books(id),
	genre_id INTEGER NOT NULL REFERENCES genres(id),
	UNIQUE (book_id, genre_id)
);

CREATE INDEX IF NOT EXISTS idx_books_author ON books(author_id);
CREATE INDEX IF NOT EXISTS idx_books_genres_genre ON books_genres(genre_id);
`
