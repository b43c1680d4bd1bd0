package publish

import (
	"context"

	"gazette/internal/caption"
)

// MediaHandle is a destination-scoped reference to an uploaded image.
type MediaHandle string

// PostRef is a destination-scoped reference to a created post. Its contents
// are opaque to the publisher; destinations encode whatever they need to
// address the post again (IDs, URIs, CIDs).
type PostRef string

// Reply addresses the post a continuation should thread under. Parent is the
// immediately preceding post in the chain; Root is the first post, carried
// for protocols whose reply payloads need both.
type Reply struct {
	Root   PostRef
	Parent PostRef
}

// Destination is the narrow capability contract every platform adapter
// implements. Platform-specific payload construction lives entirely inside
// the adapter.
type Destination interface {
	Name() string
	Authenticate(ctx context.Context) error
	UploadImage(ctx context.Context, path string) (MediaHandle, error)
	CreatePost(ctx context.Context, content caption.Caption, media []MediaHandle, reply *Reply) (PostRef, error)
}

// Result reports one destination's publish outcome. Failures are normal
// outcomes here, never raised errors.
type Result struct {
	Destination string
	Success     bool
	RootPost    PostRef
	Err         error
}
