package topic

// Store exposes topic retrieval for HTTP handlers.
type Store interface {
	List() []Topic
	FindByID(id string) (Topic, bool)
}

// MemoryStore implements Store with an in-memory slice; the catalog is
// compiled-in static data.
type MemoryStore struct {
	items []Topic
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied topics.
func NewMemoryStore(items []Topic) *MemoryStore {
	return &MemoryStore{items: append([]Topic(nil), items...)}
}

// List returns the predefined topic list.
func (s *MemoryStore) List() []Topic {
	return append([]Topic(nil), s.items...)
}

// FindByID looks up a topic by identifier.
func (s *MemoryStore) FindByID(id string) (Topic, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Topic{}, false
}
