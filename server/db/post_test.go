package db

import (
	"testing"

	"github.com/diamondburned/smolpost/smolpost"
	"github.com/go-test/deep"
)

func postsWithIDs(ids ...int) []smolpost.Post {
	var posts = make([]smolpost.Post, len(ids))
	for i, id := range ids {
		posts[i] = smolpost.NewPost("title", "content", id, "")
	}
	return posts
}

func TestGenerateID(t *testing.T) {
	var tests = []struct {
		name string
		ids  []int
		next int
	}{
		{"empty", nil, 0},
		{"sequential", []int{2, 1, 0}, 3},
		{"gap", []int{0, 2}, 1},
		{"missing zero", []int{1, 2, 3}, 0},
		{"unordered gap", []int{4, 0, 3, 1}, 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if id := GenerateID(postsWithIDs(test.ids...)); id != test.next {
				t.Fatalf("Unexpected ID %d, expected %d", id, test.next)
			}
		})
	}
}

func TestMakePost(t *testing.T) {
	var posts []smolpost.Post

	for i := 0; i < 3; i++ {
		p := smolpost.NewPost("title", "content", -1, "")
		posts = MakePost(posts, &p)

		if p.ID != i {
			t.Fatalf("Unexpected ID %d, expected %d", p.ID, i)
		}
	}

	// Newest first.
	if eq := deep.Equal(postsWithIDs(2, 1, 0), posts); eq != nil {
		t.Fatal("Unexpected post order:", eq)
	}

	t.Run("FillsGap", func(t *testing.T) {
		posts := postsWithIDs(2, 0)

		p := smolpost.NewPost("title", "content", -1, "")
		posts = MakePost(posts, &p)

		if p.ID != 1 {
			t.Fatal("Unexpected ID:", p.ID)
		}

		if posts[0].ID != 1 {
			t.Fatal("New post is not at the front:", posts[0].ID)
		}
	})
}

func TestGetPost(t *testing.T) {
	posts := postsWithIDs(5, 3, 9)

	p, ok := GetPost(posts, 3)
	if !ok {
		t.Fatal("Post 3 not found")
	}
	if p.ID != 3 {
		t.Fatal("Unexpected post:", p)
	}

	if _, ok := GetPost(posts, 4); ok {
		t.Fatal("Unexpected post 4 found")
	}
}

func TestGetPage(t *testing.T) {
	var ids = make([]int, 120)
	for i := range ids {
		ids[i] = len(ids) - i - 1
	}

	posts := postsWithIDs(ids...)

	var tests = []struct {
		name  string
		page  int
		first int
		len   int
	}{
		{"first", 0, 119, 50},
		{"second", 1, 69, 50},
		{"last", 2, 19, 20},
		{"out of bounds", 3, 119, 50},
		{"far out of bounds", 1000, 119, 50},
		{"negative", -1, 119, 50},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			page := GetPage(posts, test.page)

			if len(page) != test.len {
				t.Fatalf("Unexpected page length %d, expected %d", len(page), test.len)
			}

			if page[0].ID != test.first {
				t.Fatalf("Unexpected first ID %d, expected %d", page[0].ID, test.first)
			}
		})
	}

	t.Run("ExactPageSize", func(t *testing.T) {
		// 50 posts make page 1 a valid but empty page.
		posts := posts[:smolpost.PageSize]

		if page := GetPage(posts, 1); len(page) != 0 {
			t.Fatal("Unexpected non-empty page 1:", len(page))
		}

		if page := GetPage(posts, 2); len(page) != smolpost.PageSize {
			t.Fatal("Page 2 did not fall back to page 0:", len(page))
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if page := GetPage(nil, 0); len(page) != 0 {
			t.Fatal("Unexpected non-empty page:", len(page))
		}
	})
}
