package carddav

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const (
	multistatusOpen  = `<?xml version="1.0" encoding="utf-8"?><d:multistatus xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:carddav">`
	multistatusClose = `</d:multistatus>`
	statusOK         = `<d:status>HTTP/1.1 200 OK</d:status>`
)

func propResponse(href, props string) string {
	return `<d:response><d:href>` + href + `</d:href><d:propstat><d:prop>` + props + `</d:prop>` + statusOK + `</d:propstat></d:response>`
}

func cardResponse(href, etag, card string) string {
	return propResponse(href,
		`<d:getetag>"`+etag+`"</d:getetag>`+
			fmt.Sprintf(`<d:getcontentlength>%d</d:getcontentlength>`, len(card))+
			`<d:getlastmodified>Mon, 02 Jan 2006 15:04:05 GMT</d:getlastmodified>`+
			`<c:address-data>`+card+`</c:address-data>`)
}

func etagResponse(href, etag string) string {
	return propResponse(href, `<d:getetag>"`+etag+`"</d:getetag>`)
}

func goneResponse(href string) string {
	return `<d:response><d:href>` + href + `</d:href><d:status>HTTP/1.1 404 Not Found</d:status></d:response>`
}

func vcardText(fn string) string {
	return "BEGIN:VCARD\nVERSION:3.0\nFN:" + fn + "\nUID:" + strings.ToLower(fn) + "\nEND:VCARD\n"
}

// davServer is a scripted CardDAV server for user bob. Handlers are keyed
// by method and path.
type davServer struct {
	*httptest.Server
	routes   map[string]func(body string) (int, string)
	requests []string
}

func newDAVServer(t *testing.T) *davServer {
	t.Helper()
	d := &davServer{routes: make(map[string]func(string) (int, string))}
	d.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, p, ok := r.BasicAuth(); !ok || u != "bob" || p != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path
		d.requests = append(d.requests, key)

		h, ok := d.routes[routeKey(r.Method, r.URL.Path)]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		code, body := h(string(b))
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(d.Close)
	return d
}

// routeKey ignores a trailing slash, as clients resolve relative hrefs
// against collection paths without one.
func routeKey(method, path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	return method + " " + path
}

func (d *davServer) handle(method, path string, h func(body string) (int, string)) {
	d.routes[routeKey(method, path)] = h
}

// serveAddressbook answers REPORT requests on path. Multiget requests are
// served from cards, keyed by href; everything else goes to sync.
func (d *davServer) serveAddressbook(path string, cards map[string]string, sync func(body string) (int, string)) {
	d.handle("REPORT", path, func(body string) (int, string) {
		if !strings.Contains(body, "addressbook-multiget") {
			return sync(body)
		}
		var out strings.Builder
		for href, card := range cards {
			if strings.Contains(body, ">"+href+"</href>") {
				out.WriteString(propResponse(href, `<c:address-data>`+card+`</c:address-data>`))
			}
		}
		return http.StatusMultiStatus, multistatusOpen + out.String() + multistatusClose
	})
}

func (d *davServer) reply(method, path string, responses ...string) {
	d.handle(method, path, func(string) (int, string) {
		return http.StatusMultiStatus, multistatusOpen + strings.Join(responses, "") + multistatusClose
	})
}
