package http

import (
	"compress/gzip"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MKhiriev/go-habit-tracker/internal/app"
)

// compressJSON gzips JSON responses for clients that accept it. Bodyless
// responses such as 204 carry no Content-Type and stay plain.
var compressJSON = middleware.Compress(5, "application/json")

var gzipReaders sync.Pool

// withGZip inflates gzip request bodies and compresses JSON responses.
func withGZip(next http.Handler) http.Handler {
	compressed := compressJSON(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || !strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			compressed.ServeHTTP(w, r)
			return
		}

		zr, _ := gzipReaders.Get().(*gzip.Reader)
		var err error
		if zr == nil {
			zr, err = gzip.NewReader(r.Body)
		} else {
			err = zr.Reset(r.Body)
		}
		if err != nil {
			http.Error(w, app.MsgInvalidGzip, http.StatusBadRequest)
			return
		}

		r.Body = &inflatedBody{Reader: zr}
		r.Header.Del("Content-Encoding")
		r.ContentLength = -1
		compressed.ServeHTTP(w, r)
	})
}

type inflatedBody struct {
	*gzip.Reader
	closed bool
}

func (b *inflatedBody) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	err := b.Reader.Close()
	gzipReaders.Put(b.Reader)
	return err
}
