// Package letterboxd implements the page extractor for Letterboxd HTML.
//
// Pages are parsed with golang.org/x/net/html and read through a handful of
// class and id matchers. Fields the page does not carry are left nil.
package letterboxd
