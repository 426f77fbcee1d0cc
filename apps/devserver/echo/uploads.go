package echoapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const maxUploadSize = 5 << 20

type (
	upload struct {
		contentType string
		data        []byte
	}

	// uploads keeps files sent in multipart writes, served back under /uploads/:name.
	uploads struct {
		mutex sync.RWMutex
		files map[string]upload
	}
)

func newUploads() *uploads {
	return &uploads{files: make(map[string]upload)}
}

// save stores fh under a fresh name and returns the URL path it is served at.
func (u *uploads) save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > maxUploadSize {
		return "", errors.Errorf("%s is larger than %d bytes", fh.Filename, maxUploadSize)
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		return "", errors.Wrap(err, "reading upload")
	}

	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	name := uuid.NewString() + filepath.Ext(fh.Filename)

	u.mutex.Lock()
	u.files[name] = upload{contentType: ct, data: data}
	u.mutex.Unlock()
	return "/uploads/" + name, nil
}

func (u *uploads) serve(ctx echo.Context) error {
	u.mutex.RLock()
	f, ok := u.files[ctx.Param("name")]
	u.mutex.RUnlock()
	if !ok {
		return errHttpNotFound
	}
	return ctx.Blob(http.StatusOK, f.contentType, f.data)
}
