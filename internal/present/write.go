package present

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/alex-user-go/nearby/internal/search"
)

// Content types of the two output forms.
const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
)

// ContentType returns the content type Write produces.
func ContentType(structured bool) string {
	if structured {
		return ContentTypeJSON
	}
	return ContentTypeText
}

// Write renders result to w, as the JSON page when structured is set and as
// the inline listing of every ordered hotel otherwise. Output is rendered in
// full before anything is written.
func Write(w io.Writer, result *search.Result, structured bool, formatter Formatter) error {
	var buf bytes.Buffer
	if structured {
		if err := json.NewEncoder(&buf).Encode(NewResponse(result.Order, result.Page)); err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
	} else {
		line, err := Inline(result.Hotels, formatter)
		if err != nil {
			return err
		}
		buf.WriteString(line)
	}

	_, err := w.Write(buf.Bytes())
	return err
}
