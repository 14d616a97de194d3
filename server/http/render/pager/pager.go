// Package pager renders page navigation links.
package pager

import (
	_ "embed"

	"github.com/diamondburned/smolpost/server/http/render"
)

var (
	//go:embed pager.html
	pagerHTML string
	//go:embed pager.css
	pagerCSS string
)

func init() {
	render.RegisterCSS(pagerCSS)
}

// Pager is the data of the pager component. Count is the index of the last
// page.
type Pager struct {
	Number int
	Count  int
}

// Pages returns every page index from 0 to Count inclusive.
func (p Pager) Pages() []int {
	pages := make([]int, p.Count+1)
	for i := range pages {
		pages[i] = i
	}
	return pages
}

func (p Pager) HasPrev() bool { return p.Number > 0 }
func (p Pager) HasNext() bool { return p.Number < p.Count }

var Component = render.Component{
	Template: pagerHTML,
}
