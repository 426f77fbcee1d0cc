package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

// Body is an encoded request payload. It is encoded once so a retry sends the same bytes.
type Body struct {
	ContentType string
	Data        []byte
}

// JSONBody encodes v as JSON.
func JSONBody(v interface{}) (*Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding json body")
	}
	return &Body{ContentType: "application/json", Data: data}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// MultipartBody encodes rec as multipart/form-data. core.File values become file parts,
// scalars become fields and nested values are sent as JSON strings. Nil values are skipped.
func MultipartBody(rec core.Record) (*Body, error) {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range keys {
		if err := writePart(w, k, rec[k]); err != nil {
			return nil, errors.Wrapf(err, "encoding field %s", k)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart body")
	}
	return &Body{ContentType: w.FormDataContentType(), Data: buf.Bytes()}, nil
}

func writePart(w *multipart.Writer, name string, v interface{}) error {
	switch val := v.(type) {
	case nil:
		return nil
	case core.File:
		return writeFile(w, name, &val)
	case *core.File:
		if val == nil {
			return nil
		}
		return writeFile(w, name, val)
	case string:
		return w.WriteField(name, val)
	case bool:
		return w.WriteField(name, strconv.FormatBool(val))
	case float64:
		return w.WriteField(name, strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return w.WriteField(name, strconv.Itoa(val))
	case int64:
		return w.WriteField(name, strconv.FormatInt(val, 10))
	case json.Number:
		return w.WriteField(name, val.String())
	case time.Time:
		return w.WriteField(name, val.Format(time.RFC3339))
	case fmt.Stringer:
		return w.WriteField(name, val.String())
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return err
		}
		return w.WriteField(name, string(data))
	}
}

func writeFile(w *multipart.Writer, name string, f *core.File) error {
	filename := f.Name
	if filename == "" {
		filename = name
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}
