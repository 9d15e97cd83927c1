package main

import (
	"context"
	"errors"
	"time"

	"github.com/hyperifyio/telebirr-verify/internal/failure"
	"github.com/hyperifyio/telebirr-verify/internal/fetch"
)

// noFetch backs the offline mode, where nothing may touch the network.
type noFetch struct{}

func (noFetch) Fetch(ctx context.Context, url string, timeout time.Duration) (fetch.Page, error) {
	return fetch.Page{}, failure.Wrap(failure.Navigation, errors.New("fetching disabled in offline mode"))
}
