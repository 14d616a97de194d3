package db

import (
	"context"
	"sync"

	"github.com/diamondburned/smolpost/smolpost"
)

// MemoryStore keeps all posts in memory. Posts are lost when the process
// exits.
type MemoryStore struct {
	mutex sync.RWMutex
	posts []smolpost.Post
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) MakePost(_ context.Context, p *smolpost.Post) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.posts = MakePost(s.posts, p)
	return nil
}

func (s *MemoryStore) Post(_ context.Context, id int) (*smolpost.Post, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	p, ok := GetPost(s.posts, id)
	if !ok {
		return nil, smolpost.ErrPostNotFound
	}

	cpy := *p
	return &cpy, nil
}

func (s *MemoryStore) Page(_ context.Context, page int) (smolpost.Page, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	posts := GetPage(s.posts, page)

	return smolpost.Page{
		Posts:  append([]smolpost.Post(nil), posts...),
		Number: PageNumber(len(s.posts), page),
		Count:  smolpost.PageCount(len(s.posts)),
		Total:  len(s.posts),
	}, nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mutex.Lock()
	s.posts = nil
	s.mutex.Unlock()

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
