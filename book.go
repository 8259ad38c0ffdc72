package bieb

// Book belongs to exactly one Author and owns its genre set. The genre set
// is what the store writes to the association table on save; the Author
// back-set on the other side is load-only.
type Book struct {
	ID              int64
	Title           string
	ISBN            string
	PublicationYear int
	Author          Author

	genres []Genre
}

// Equal reports whether both books are the same persisted entity.
func (b Book) Equal(other Book) bool {
	return b.ID != 0 && b.ID == other.ID
}

// Genres returns a copy of the owned genre set.
func (b *Book) Genres() []Genre {
	return append([]Genre(nil), b.genres...)
}

func (b *Book) SetGenres(genres []Genre) {
	b.genres = dedupeByID(genres, func(g Genre) int64 { return g.ID })
}

func (b *Book) AddGenre(genre Genre) {
	b.genres = dedupeByID(append(b.genres, genre), func(g Genre) int64 { return g.ID })
}

func (b *Book) RemoveGenre(genre Genre) {
	kept := b.genres[:0:0]
	for _, g := range b.genres {
		if g.Equal(genre) {
			continue
		}
		kept = append(kept, g)
	}
	b.genres = kept
}
