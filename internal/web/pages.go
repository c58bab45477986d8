package web

import (
	"net/http"

	"Gallery/internal/api/middleware"
	"Gallery/internal/core/photos"
)

// Page is the data every page needs for the shared header
type Page struct {
	Title    string
	Nickname string
	LoggedIn bool
}

// MessagePage shows a single line of text
type MessagePage struct {
	Message string
	Page
}

// MyPhotosPage lists the user's photos and the result of an upload
type MyPhotosPage struct {
	Uploaded *photos.Photo
	Error    string
	Photos   []*photos.Photo
	Page
}

// InfoPage describes the serving instance
type InfoPage struct {
	InstanceID       string
	AvailabilityZone string
	GoVersion        string
	Page
}

func newPage(r *http.Request, title string) Page {
	p := Page{Title: title}
	if identity, ok := middleware.GetIdentity(r.Context()); ok {
		p.LoggedIn = true
		p.Nickname = identity.Nickname
	}
	return p
}
