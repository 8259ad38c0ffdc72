package bieb

// Genre is identified by its surrogate key like every entity, but Name is a
// unique natural key usable as an alternate lookup. The book set is owned
// from this side too: saving a genre rewrites the association rows for it.
type Genre struct {
	ID          int64
	Name        string
	Description string

	books []Book
}

// Equal reports whether both genres are the same persisted entity.
func (g Genre) Equal(other Genre) bool {
	return g.ID != 0 && g.ID == other.ID
}

// Books returns a copy of the owned book set.
func (g *Genre) Books() []Book {
	return append([]Book(nil), g.books...)
}

func (g *Genre) SetBooks(books []Book) {
	g.books = dedupeByID(books, func(b Book) int64 { return b.ID })
}
