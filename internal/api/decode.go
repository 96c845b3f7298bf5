package api

import (
	"errors"
	"io"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/chatweb/internal/errors"
	"github.com/diogo/chatweb/internal/models"
)

// streamChunkSize is the read buffer used for streamed bodies
const streamChunkSize = 4096

var errConsumed = errors.New("response body already consumed")

// Decode turns a response handle into display updates. Each update carries
// the full text to show so far, never a delta. A stream yields one update per
// received chunk and at least one update overall; a buffered body yields
// exactly one. A failure is yielded as the final pair and ends the sequence.
//
// The sequence consumes the handle and cannot be restarted. Closing the
// handle is left to the caller.
func Decode(h *ResponseHandle) iter.Seq2[models.DisplayUpdate, error] {
	return func(yield func(models.DisplayUpdate, error) bool) {
		if h.consumed {
			yield(models.DisplayUpdate{}, apierrors.NewDecodeError(h.Mode.String(), errConsumed))
			return
		}
		h.consumed = true

		if h.Mode == ModeStream {
			decodeStream(h, yield)
			return
		}
		decodeBuffered(h, yield)
	}
}

func decodeStream(r io.Reader, yield func(models.DisplayUpdate, error) bool) {
	buf := make([]byte, streamChunkSize)
	var (
		text    strings.Builder
		pending []byte
		emitted bool
	)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := append(pending, buf[:n]...)
			complete := completePrefix(data)
			text.Write(data[:complete])
			pending = append([]byte(nil), data[complete:]...)

			emitted = true
			if !yield(models.DisplayUpdate{Text: text.String()}, nil) {
				return
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			yield(models.DisplayUpdate{Text: text.String()}, apierrors.NewDecodeError(ModeStream.String(), err))
			return
		}
	}

	switch {
	case len(pending) > 0:
		// truncated multi-byte sequence at end of stream
		text.WriteString(strings.ToValidUTF8(string(pending), string(utf8.RuneError)))
		yield(models.DisplayUpdate{Text: text.String()}, nil)
	case !emitted:
		yield(models.DisplayUpdate{}, nil)
	}
}

// completePrefix returns the length of the longest prefix of p that does not
// end inside a multi-byte UTF-8 sequence
func completePrefix(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if utf8.RuneStart(p[i]) {
			if utf8.FullRune(p[i:]) {
				return len(p)
			}
			return i
		}
	}
	return len(p)
}

func decodeBuffered(r io.Reader, yield func(models.DisplayUpdate, error) bool) {
	data, err := io.ReadAll(r)
	if err != nil {
		yield(models.DisplayUpdate{}, apierrors.NewDecodeError(ModeBuffered.String(), err))
		return
	}
	yield(models.DisplayUpdate{Text: replyText(data)}, nil)
}

// replyText picks the text to display from a buffered body: the "reply"
// string of a JSON object, else the compact serialization of whatever JSON
// was returned, else the raw text.
func replyText(data []byte) string {
	if !gjson.ValidBytes(data) {
		return string(data)
	}

	parsed := gjson.ParseBytes(data)
	if parsed.IsObject() {
		if reply := parsed.Get("reply"); reply.Type == gjson.String {
			return reply.String()
		}
	}
	return gjson.GetBytes(data, "@ugly").Raw
}

// Collect drains a decode sequence and returns the final text
func Collect(seq iter.Seq2[models.DisplayUpdate, error]) (string, error) {
	var last models.DisplayUpdate
	for update, err := range seq {
		if err != nil {
			return update.Text, err
		}
		last = update
	}
	return last.Text, nil
}
