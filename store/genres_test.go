package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pollex.nl/bieb"
)

func TestGenreRoundTrip(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	genre := bieb.Genre{Name: "Novel", Description: "Long-form fiction."}
	require.NoError(t, st.Genres().Save(ctx, &genre))
	require.NotZero(t, genre.ID)

	loaded, err := st.Genres().FindByID(ctx, genre.ID)
	require.NoError(t, err)
	assert.Equal(t, "Novel", loaded.Name)
	assert.Equal(t, "Long-form fiction.", loaded.Description)
	assert.Empty(t, loaded.Books())
}

func TestGenreFindByIDPopulatesBooks(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	author := savedAuthor(t, st, "Leo", "Tolstoy")
	novel := savedGenre(t, st, "Novel")
	war := savedBook(t, st, "War and Peace", author, novel)
	savedBook(t, st, "Notebooks", author)

	loaded, err := st.Genres().FindByID(ctx, novel.ID)
	require.NoError(t, err)

	books := loaded.Books()
	require.Len(t, books, 1)
	assert.True(t, books[0].Equal(war))
	assert.Equal(t, "War and Peace", books[0].Title)
}

func TestGenreFindByName(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	author := savedAuthor(t, st, "Leo", "Tolstoy")
	novel := savedGenre(t, st, "Novel")
	savedGenre(t, st, "Drama")
	savedBook(t, st, "War and Peace", author, novel)

	loaded, err := st.Genres().FindByName(ctx, "Novel")
	require.NoError(t, err)
	assert.True(t, loaded.Equal(novel))
	assert.Len(t, loaded.Books(), 1)

	_, err = st.Genres().FindByName(ctx, "Poetry")
	require.ErrorIs(t, err, bieb.ErrNotFound)

	var notFound *bieb.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Poetry", notFound.Identifier)
}

func TestGenreFindAllOrderedByName(t *testing.T) {
	st, _ := setupStore(t)

	savedGenre(t, st, "Novel")
	savedGenre(t, st, "Drama")
	savedGenre(t, st, "Poetry")

	genres, err := st.Genres().FindAll(context.Background())
	require.NoError(t, err)

	require.Len(t, genres, 3)
	assert.Equal(t, "Drama", genres[0].Name)
	assert.Equal(t, "Novel", genres[1].Name)
	assert.Equal(t, "Poetry", genres[2].Name)
}

func TestGenreDuplicateNameOnInsert(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	savedGenre(t, st, "Novel")

	dup := bieb.Genre{Name: "Novel"}
	err := st.Genres().Save(ctx, &dup)
	require.ErrorIs(t, err, bieb.ErrDuplicate)

	var duplicate *bieb.DuplicateError
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, "genre", duplicate.Entity)
	assert.Equal(t, "name", duplicate.Field)
	assert.Equal(t, "Novel", duplicate.Value)
}

func TestGenreDuplicateNameOnUpdate(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	savedGenre(t, st, "Novel")
	drama := savedGenre(t, st, "Drama")

	drama.Name = "Novel"
	err := st.Genres().Save(ctx, &drama)
	require.ErrorIs(t, err, bieb.ErrDuplicate)

	// The rename never committed.
	loaded, findErr := st.Genres().FindByID(ctx, drama.ID)
	require.NoError(t, findErr)
	assert.Equal(t, "Drama", loaded.Name)
}

func TestGenreUpdateMissingKeyIsNotFound(t *testing.T) {
	st, _ := setupStore(t)

	ghost := bieb.Genre{ID: 999, Name: "Ghost"}
	err := st.Genres().Save(context.Background(), &ghost)
	assert.ErrorIs(t, err, bieb.ErrNotFound)
}

// TestGenreSaveResyncsBooks rewrites the association table from the genre
// side: same table as Book.Save, opposite owner.
func TestGenreSaveResyncsBooks(t *testing.T) {
	st, sq := setupStore(t)
	ctx := context.Background()

	author := savedAuthor(t, st, "Leo", "Tolstoy")
	novel := savedGenre(t, st, "Novel")
	war := savedBook(t, st, "War and Peace", author, novel)
	anna := savedBook(t, st, "Anna Karenina", author)

	novel.SetBooks([]bieb.Book{war, anna})
	require.NoError(t, st.Genres().Save(ctx, &novel))
	assert.Equal(t, 2, genreBookRows(t, sq, novel.ID))

	loaded, err := st.Books().FindByID(ctx, anna.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Genres(), 1)
	assert.True(t, loaded.Genres()[0].Equal(novel))

	// Shrinking the set drops the rows that fell out.
	novel.SetBooks([]bieb.Book{anna})
	require.NoError(t, st.Genres().Save(ctx, &novel))
	assert.Equal(t, 1, genreBookRows(t, sq, novel.ID))

	loaded, err = st.Books().FindByID(ctx, war.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Genres())
}

func TestGenreSaveRollsBackOnAssociationFailure(t *testing.T) {
	st, sq := setupStore(t)
	ctx := context.Background()

	author := savedAuthor(t, st, "Leo", "Tolstoy")
	novel := savedGenre(t, st, "Novel")
	war := savedBook(t, st, "War and Peace", author, novel)

	novel.Description = "Changed."
	novel.SetBooks([]bieb.Book{war, {ID: 9999}})
	err := st.Genres().Save(ctx, &novel)
	require.ErrorIs(t, err, bieb.ErrDatabase)

	loaded, findErr := st.Genres().FindByID(ctx, novel.ID)
	require.NoError(t, findErr)
	assert.Empty(t, loaded.Description)
	assert.Equal(t, 1, genreBookRows(t, sq, novel.ID))
}

func TestGenreDeleteCleansAssociations(t *testing.T) {
	st, sq := setupStore(t)
	ctx := context.Background()

	author := savedAuthor(t, st, "Leo", "Tolstoy")
	novel := savedGenre(t, st, "Novel")
	war := savedBook(t, st, "War and Peace", author, novel)

	require.NoError(t, st.Genres().DeleteByID(ctx, novel.ID))

	_, err := st.Genres().FindByID(ctx, novel.ID)
	assert.ErrorIs(t, err, bieb.ErrNotFound)
	assert.Zero(t, genreBookRows(t, sq, novel.ID))

	// The book survives, just without the genre.
	loaded, err := st.Books().FindByID(ctx, war.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Genres())
}

func TestGenreDeleteMissingKeyIsNotFound(t *testing.T) {
	st, _ := setupStore(t)

	err := st.Genres().DeleteByID(context.Background(), 404)
	assert.ErrorIs(t, err, bieb.ErrNotFound)
}
