package publish_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gazette/internal/caption"
	"gazette/internal/logging"
	"gazette/internal/publish"
	"gazette/internal/render"
)

type createdPost struct {
	body  string
	media []publish.MediaHandle
	reply *publish.Reply
}

type fakeDestination struct {
	name        string
	authErr     error
	authCalls   int
	uploadErrs  map[string]error
	uploadCalls int
	postErr     error
	posts       []createdPost
}

func (f *fakeDestination) Name() string { return f.name }

func (f *fakeDestination) Authenticate(context.Context) error {
	f.authCalls++
	return f.authErr
}

func (f *fakeDestination) UploadImage(_ context.Context, path string) (publish.MediaHandle, error) {
	f.uploadCalls++
	if err, ok := f.uploadErrs[path]; ok && err != nil {
		return "", err
	}
	return publish.MediaHandle("media:" + path), nil
}

func (f *fakeDestination) CreatePost(_ context.Context, content caption.Caption, media []publish.MediaHandle, reply *publish.Reply) (publish.PostRef, error) {
	if f.postErr != nil {
		return "", f.postErr
	}
	var replyCopy *publish.Reply
	if reply != nil {
		cp := *reply
		replyCopy = &cp
	}
	f.posts = append(f.posts, createdPost{body: content.Body, media: media, reply: replyCopy})
	return publish.PostRef(fmt.Sprintf("post-%d", len(f.posts))), nil
}

func pages(n int) []render.Page {
	out := make([]render.Page, n)
	for i := range out {
		out[i] = render.Page{Index: i, Path: fmt.Sprintf("page-%d.jpg", i)}
	}
	return out
}

func fastPolicy() publish.Policy {
	return publish.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func testCaption() caption.Caption {
	return caption.Caption{Body: "Stewards Decision\nPublished on 01.06.25\n\n#f1"}
}

func TestPublishBatchesAndThreadsReplies(t *testing.T) {
	dest := &fakeDestination{name: "bluesky"}
	pub := publish.NewPublisher(fastPolicy(), logging.NewNop())

	result := pub.Publish(context.Background(), dest, 4, pages(9), testCaption())
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(dest.posts) != 3 {
		t.Fatalf("expected 3 posts for 9 pages at batch size 4, got %d", len(dest.posts))
	}
	if got := []int{len(dest.posts[0].media), len(dest.posts[1].media), len(dest.posts[2].media)}; got[0] != 4 || got[1] != 4 || got[2] != 1 {
		t.Fatalf("unexpected batch sizes %v", got)
	}

	if dest.posts[0].reply != nil {
		t.Fatal("first post must not be a reply")
	}
	if dest.posts[0].body != testCaption().Body {
		t.Fatalf("first post body %q", dest.posts[0].body)
	}
	if result.RootPost != publish.PostRef("post-1") {
		t.Fatalf("unexpected root post %q", result.RootPost)
	}

	second := dest.posts[1]
	if second.body != "Continued... (2/3)" {
		t.Fatalf("unexpected continuation body %q", second.body)
	}
	if second.reply == nil || second.reply.Parent != "post-1" || second.reply.Root != "post-1" {
		t.Fatalf("unexpected second reply %+v", second.reply)
	}

	third := dest.posts[2]
	if third.body != "Continued... (3/3)" {
		t.Fatalf("unexpected continuation body %q", third.body)
	}
	// Linear chain: batch 3 replies to batch 2's post, not to the root.
	if third.reply == nil || third.reply.Parent != "post-2" || third.reply.Root != "post-1" {
		t.Fatalf("unexpected third reply %+v", third.reply)
	}
}

func TestPublishSingleBatchHasNoContinuations(t *testing.T) {
	dest := &fakeDestination{name: "mastodon"}
	pub := publish.NewPublisher(fastPolicy(), logging.NewNop())

	result := pub.Publish(context.Background(), dest, 4, pages(3), testCaption())
	if !result.Success || len(dest.posts) != 1 {
		t.Fatalf("expected one post, got %+v / %d posts", result, len(dest.posts))
	}
}

func TestPublishExcludesFailedImagesButKeepsBatch(t *testing.T) {
	dest := &fakeDestination{
		name:       "bluesky",
		uploadErrs: map[string]error{"page-1.jpg": errors.New("boom")},
	}
	pub := publish.NewPublisher(publish.Policy{MaxAttempts: 1}, logging.NewNop())

	result := pub.Publish(context.Background(), dest, 4, pages(4), testCaption())
	if !result.Success {
		t.Fatalf("expected success despite one failed image, got %+v", result)
	}
	if len(dest.posts) != 1 || len(dest.posts[0].media) != 3 {
		t.Fatalf("expected one post with 3 images, got %+v", dest.posts)
	}
}

func TestPublishFailsWhenEveryImageFails(t *testing.T) {
	uploadErrs := map[string]error{}
	for _, page := range pages(3) {
		uploadErrs[page.Path] = errors.New("boom")
	}
	dest := &fakeDestination{name: "bluesky", uploadErrs: uploadErrs}
	pub := publish.NewPublisher(publish.Policy{MaxAttempts: 1}, logging.NewNop())

	result := pub.Publish(context.Background(), dest, 4, pages(3), testCaption())
	if result.Success {
		t.Fatal("expected failure when no batch can be posted")
	}
	if len(dest.posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(dest.posts))
	}
}

func TestPublishAuthFailureIsReportedNotRaised(t *testing.T) {
	dest := &fakeDestination{name: "bluesky", authErr: errors.New("bad credentials")}
	pub := publish.NewPublisher(publish.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}, logging.NewNop())

	result := pub.Publish(context.Background(), dest, 4, pages(1), testCaption())
	if result.Success {
		t.Fatal("expected auth failure result")
	}
	if result.Err == nil {
		t.Fatal("expected error recorded in result")
	}
	if dest.authCalls != 2 {
		t.Fatalf("expected 2 auth attempts, got %d", dest.authCalls)
	}
	if dest.uploadCalls != 0 {
		t.Fatal("no uploads should happen after auth failure")
	}
}

func TestPublishPostFailureFailsDestination(t *testing.T) {
	dest := &fakeDestination{name: "bluesky", postErr: errors.New("api down")}
	pub := publish.NewPublisher(publish.Policy{MaxAttempts: 1}, logging.NewNop())

	result := pub.Publish(context.Background(), dest, 4, pages(2), testCaption())
	if result.Success || result.Err == nil {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestPublishRejectsEmptyPageList(t *testing.T) {
	dest := &fakeDestination{name: "bluesky"}
	pub := publish.NewPublisher(fastPolicy(), logging.NewNop())

	result := pub.Publish(context.Background(), dest, 4, nil, testCaption())
	if result.Success {
		t.Fatal("expected failure for empty page list")
	}
	if dest.authCalls != 0 {
		t.Fatal("should not authenticate with nothing to publish")
	}
}
