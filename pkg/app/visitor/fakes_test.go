package visitor

import (
	"net/http"
)

type fakeRequest struct {
	headers     http.Header
	remoteAddr  string
	scheme      string
	host        string
	originalURL string
}

func newFakeRequest(host, originalURL string) *fakeRequest {
	return &fakeRequest{
		headers:     http.Header{},
		remoteAddr:  "192.0.2.10:51234",
		scheme:      "https",
		host:        host,
		originalURL: originalURL,
	}
}

func (r *fakeRequest) withHeader(name, value string) *fakeRequest {
	r.headers.Set(name, value)
	return r
}

func (r *fakeRequest) Header(name string) string { return r.headers.Get(name) }
func (r *fakeRequest) RemoteAddr() string        { return r.remoteAddr }
func (r *fakeRequest) Scheme() string            { return r.scheme }
func (r *fakeRequest) Host() string              { return r.host }
func (r *fakeRequest) OriginalURL() string       { return r.originalURL }

type fakeResponse struct {
	calls    int
	status   int
	body     string
	location string
	err      error
}

func (r *fakeResponse) SendStatus(code int) error {
	r.calls++
	r.status = code
	return r.err
}

func (r *fakeResponse) SendHTML(code int, body string) error {
	r.calls++
	r.status = code
	r.body = body
	return r.err
}

func (r *fakeResponse) Redirect(code int, location string) error {
	r.calls++
	r.status = code
	r.location = location
	return r.err
}
