package transport

import (
	"bytes"
	"io"
	"net/http"
)

const maxDrain = 4 * 1024

// replayBody hands out a fresh request body per attempt.
type replayBody struct {
	first   io.ReadCloser
	getBody func() (io.ReadCloser, error)
	length  int64
}

// newReplayBody reuses req.GetBody when set; otherwise the body is buffered once.
func newReplayBody(r *http.Request) (*replayBody, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if r.GetBody != nil {
		return &replayBody{first: r.Body, getBody: r.GetBody, length: r.ContentLength}, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return &replayBody{getBody: func() (io.ReadCloser, error) { return http.NoBody, nil }}, nil
	}
	return &replayBody{
		getBody: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
		length: int64(len(data)),
	}, nil
}

func (b *replayBody) next() (io.ReadCloser, error) {
	if b.first != nil {
		ret := b.first
		b.first = nil
		return ret, nil
	}
	return b.getBody()
}

// close releases the caller's body when it was never sent
func (b *replayBody) close() {
	if b != nil && b.first != nil {
		_ = b.first.Close()
		b.first = nil
	}
}

// withToken clones r with its own body; the caller's request is never mutated.
func withToken(r *http.Request, body *replayBody, token string) (*http.Request, error) {
	cloned := r.Clone(r.Context())
	if body != nil {
		reader, err := body.next()
		if err != nil {
			return nil, err
		}
		cloned.Body = reader
		cloned.GetBody = body.getBody
		cloned.ContentLength = body.length
		if reader == http.NoBody {
			cloned.ContentLength = 0
		}
	}
	if token != "" {
		cloned.Header.Set("Authorization", "Bearer "+token)
	}
	return cloned, nil
}

// drain discards a bit of the body so the connection can be reused, then closes it.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrain)
	_ = resp.Body.Close()
}
