package db

import (
	"github.com/diamondburned/smolpost/smolpost"
)

// GenerateID returns the smallest non-negative integer that no post in the
// given list has as its ID.
func GenerateID(posts []smolpost.Post) int {
	var used = make(map[int]struct{}, len(posts))
	for _, post := range posts {
		used[post.ID] = struct{}{}
	}

	return smallestUnused(used)
}

func smallestUnused(used map[int]struct{}) int {
	for n := 0; ; n++ {
		if _, ok := used[n]; !ok {
			return n
		}
	}
}

// MakePost creates a new post with a generated ID and inserts it at the front
// of the list. The new list is returned.
func MakePost(posts []smolpost.Post, p *smolpost.Post) []smolpost.Post {
	p.ID = GenerateID(posts)

	newList := make([]smolpost.Post, 0, len(posts)+1)
	newList = append(newList, *p)
	newList = append(newList, posts...)

	return newList
}

// GetPost searches the list for the post with the given ID.
func GetPost(posts []smolpost.Post, id int) (*smolpost.Post, bool) {
	for i, post := range posts {
		if post.ID == id {
			return &posts[i], true
		}
	}
	return nil, false
}

// PageNumber resolves the requested page for a store of n posts. Pages past the
// last page and negative pages fall back to page 0.
func PageNumber(n, page int) int {
	if page < 0 || page > smolpost.PageCount(n) {
		return 0
	}
	return page
}

// GetPage slices the given page out of the list. The returned slice shares the
// backing array with the list.
func GetPage(posts []smolpost.Post, page int) []smolpost.Post {
	page = PageNumber(len(posts), page)

	start := page * smolpost.PageSize
	end := start + smolpost.PageSize

	if end > len(posts) {
		end = len(posts)
	}

	return posts[start:end]
}
