package room

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Typed failure modes of the video back-end. These surface to the caller;
// there is no silent fallback.
var (
	ErrRoomFull     = errors.New("video room is full")
	ErrRoomNotFound = errors.New("video room not found")
)

// VideoBackend confirms that a room name is joinable. The back-end is
// addressed by the opaque room name only.
type VideoBackend interface {
	EnsureRoom(ctx context.Context, roomName string) error
}

// HTTPVideoBackend talks to the conferencing service over its REST surface.
type HTTPVideoBackend struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPVideoBackend(baseURL string) *HTTPVideoBackend {
	return &HTTPVideoBackend{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *HTTPVideoBackend) EnsureRoom(ctx context.Context, roomName string) error {
	u := fmt.Sprintf("%s/rooms/%s", b.BaseURL, url.PathEscape(roomName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, nil)
	if err != nil {
		return err
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusNotFound:
		return ErrRoomNotFound
	case http.StatusConflict:
		return ErrRoomFull
	default:
		return fmt.Errorf("video backend: unexpected status %s", resp.Status)
	}
}

// NoopVideoBackend accepts every room. Used when no conferencing service is
// configured and in tests.
type NoopVideoBackend struct{}

func (NoopVideoBackend) EnsureRoom(ctx context.Context, roomName string) error { return nil }
