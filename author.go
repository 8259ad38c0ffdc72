package bieb

// Author is a writer of books. The book set is a back-relation: the store
// fills it on a by-id load and never persists it from the author side.
type Author struct {
	ID        int64
	FirstName string
	LastName  string
	Biography string

	books []Book
}

// Equal reports whether both authors are the same persisted entity.
// Transient authors are never equal, not even to themselves.
func (a Author) Equal(other Author) bool {
	return a.ID != 0 && a.ID == other.ID
}

// Books returns a copy of the owned book set.
func (a *Author) Books() []Book {
	return append([]Book(nil), a.books...)
}

func (a *Author) SetBooks(books []Book) {
	a.books = dedupeByID(books, func(b Book) int64 { return b.ID })
}

func (a *Author) AddBook(book Book) {
	a.books = dedupeByID(append(a.books, book), func(b Book) int64 { return b.ID })
}

func (a *Author) RemoveBook(book Book) {
	kept := a.books[:0:0]
	for _, b := range a.books {
		if b.Equal(book) {
			continue
		}
		kept = append(kept, b)
	}
	a.books = kept
}
