package letterboxd

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Extractor reads Letterboxd HTML pages.
type Extractor struct{}

// New creates a new Letterboxd extractor.
func New() *Extractor {
	return &Extractor{}
}

// parse builds the node tree of a page.
func parse(doc []byte) (*html.Node, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", domain.ErrInvalidInput, err)
	}
	return root, nil
}

// PosterList extracts movie stubs from a poster grid. Only the main column
// grid is read so sidebars with their own posters are ignored.
func (e *Extractor) PosterList(doc []byte) ([]domain.ScrapedMovie, error) {
	root, err := parse(doc)
	if err != nil {
		return nil, err
	}

	grids := childrenOf(findAll(root, el(0, "col-main")), el(atom.Ul, "poster-list"))
	items := childrenOf(grids, el(atom.Li))

	movies := make([]domain.ScrapedMovie, 0, len(items))
	for _, li := range items {
		var m domain.ScrapedMovie

		if v, ok := attr(li, "data-average-rating"); ok {
			if r, err := strconv.ParseFloat(v, 64); err == nil && r > 0 {
				m.AverageRating = &r
			}
		}

		poster := find(li, el(0, "film-poster"))
		if v, ok := attr(poster, "data-film-name"); ok && v != "" {
			m.Name = &v
		}
		if v, ok := attr(poster, "data-film-slug"); ok && v != "" {
			m.Slug = &v
		}
		if m.Name == nil {
			if alt, ok := attr(find(li, el(atom.Img)), "alt"); ok && alt != "" {
				m.Name = &alt
			}
		}

		movies = append(movies, m)
	}
	return movies, nil
}

// FilmPage reads the TMDB identity Letterboxd attaches to the body element.
func (e *Extractor) FilmPage(doc []byte) (domain.FilmPage, error) {
	root, err := parse(doc)
	if err != nil {
		return domain.FilmPage{}, err
	}

	var page domain.FilmPage
	body := find(root, el(atom.Body))
	if v, ok := attr(body, "data-tmdb-id"); ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			page.TmdbID = &id
		}
	}
	if v, ok := attr(body, "data-tmdb-type"); ok && v != "" {
		page.TmdbType = &v
	}
	if title := text(find(root, el(atom.H1, "headline-1"))); title != "" {
		page.Title = &title
	}
	return page, nil
}

// Watches extracts entries from a rated films grid. Movie ids are not on
// this page; the caller resolves them through each film page.
func (e *Extractor) Watches(doc []byte) ([]domain.ScrapedEntry, error) {
	root, err := parse(doc)
	if err != nil {
		return nil, err
	}

	items := childrenOf(findAll(root, el(0, "poster-list")), el(atom.Li))
	entries := make([]domain.ScrapedEntry, 0, len(items))
	for _, li := range items {
		var w domain.ScrapedEntry

		if v, ok := attr(find(li, el(0, "film-poster")), "data-film-slug"); ok && v != "" {
			w.Slug = &v
		}
		if alt, ok := attr(find(li, el(atom.Img)), "alt"); ok {
			w.Name = &alt
		}

		view := find(li, el(atom.P, "poster-viewingdata"))
		w.Stars = stars(find(view, el(atom.Span, "rating")))
		heart := find(view, el(atom.Span, "icon-liked")) != nil
		w.Heart = &heart
		if v, ok := attr(find(view, el(atom.Time)), "datetime"); ok {
			w.Date = parseTime(v)
		}

		entries = append(entries, w)
	}
	return entries, nil
}

// Diary extracts entries from a diary table.
func (e *Extractor) Diary(doc []byte) ([]domain.ScrapedEntry, error) {
	root, err := parse(doc)
	if err != nil {
		return nil, err
	}

	rows := findAll(find(root, byID("diary-table")), el(atom.Tr, "diary-entry-row"))
	entries := make([]domain.ScrapedEntry, 0, len(rows))
	for _, tr := range rows {
		var d domain.ScrapedEntry

		if v, ok := attr(find(tr, el(0, "film-poster")), "data-film-slug"); ok && v != "" {
			d.Slug = &v
		}
		if alt, ok := attr(find(tr, el(atom.Img)), "alt"); ok {
			d.Name = &alt
		}

		d.Stars = stars(path(tr, el(atom.Td, "td-rating"), el(atom.Span, "rating")))

		// A liked row renders three spans inside the like cell.
		if like := find(tr, el(0, "diary-like")); like != nil && len(findAll(like, el(atom.Span))) == 3 {
			heart := true
			d.Heart = &heart
		}

		if rewatch := find(tr, el(0, "td-rewatch")); rewatch != nil {
			r := !hasClass(rewatch, "icon-status-off")
			d.Rewatch = &r
		}

		if day := find(tr, el(0, "diary-day")); day != nil {
			if href, ok := attr(find(day, el(atom.A)), "href"); ok {
				d.Date = diaryDate(href)
			}
		}

		entries = append(entries, d)
	}
	return entries, nil
}

// ListIndex returns the location of every list on a user's lists page.
// A list without a link means the page layout is not understood.
func (e *Extractor) ListIndex(doc []byte) ([]string, error) {
	root, err := parse(doc)
	if err != nil {
		return nil, err
	}

	sections := childrenOf(findAll(root, el(atom.Section, "list-set")), el(atom.Section, "list"))
	urls := make([]string, 0, len(sections))
	for i, section := range sections {
		href, ok := attr(find(section, el(atom.A, "list-link")), "href")
		if !ok || href == "" {
			return nil, fmt.Errorf("%w: no link for list %d", domain.ErrInvalidInput, i)
		}
		urls = append(urls, href)
	}
	return urls, nil
}

// ListDetails reads a list's title, owner and dates.
func (e *Extractor) ListDetails(doc []byte) (domain.ScrapedListDetails, error) {
	root, err := parse(doc)
	if err != nil {
		return domain.ScrapedListDetails{}, err
	}

	var d domain.ScrapedListDetails
	body := find(root, el(atom.Body))
	if v, ok := attr(body, "data-owner"); ok && v != "" {
		d.Owner = &v
	}

	if dates := path(root, byID("content-nav"), el(0, "list-date")); dates != nil {
		if v, ok := attr(path(dates, el(0, "published"), el(atom.Time)), "datetime"); ok {
			d.Published = parseTime(v)
		}
		if v, ok := attr(path(dates, el(0, "updated"), el(atom.Time)), "datetime"); ok {
			d.Updated = parseTime(v)
		}
	}

	if intro := find(root, el(0, "list-title-intro")); intro != nil {
		if title := text(find(intro, el(atom.H1))); title != "" {
			d.Title = &title
		}
		if desc := text(find(intro, el(0, "body-text"))); desc != "" {
			d.Description = &desc
		}
	}

	grid := find(root, el(0, "poster-list", "film-list"))
	d.Ranked = find(grid, el(0, "poster-container", "numbered-list-item")) != nil
	return d, nil
}

// LastPage returns the highest page number in the pagination block.
func (e *Extractor) LastPage(doc []byte) (int, error) {
	root, err := parse(doc)
	if err != nil {
		return 0, err
	}

	last := 1
	for _, li := range findAll(find(root, el(0, "paginate-pages")), el(atom.Li, "paginate-page")) {
		if n, err := strconv.Atoi(text(li)); err == nil && n > last {
			last = n
		}
	}
	return last, nil
}

// stars converts a "rated-N" class, N in half stars, into stars.
func stars(span *html.Node) *float64 {
	v, ok := classWithPrefix(span, "rated-")
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return nil
	}
	s := float64(n) / 2
	return &s
}

var timeLayouts = []string{time.RFC3339, "2006-01-02"}

func parseTime(v string) *time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// diaryDate reads the day from a diary link such as
// "/alice/films/diary/year/2023/05/14/".
func diaryDate(href string) *time.Time {
	parts := strings.Split(strings.Trim(href, "/"), "/")
	if len(parts) < 3 {
		return nil
	}
	day := strings.Join(parts[len(parts)-3:], "-")
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil
	}
	return &t
}
