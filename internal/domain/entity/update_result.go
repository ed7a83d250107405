package entity

// UpdateResult is the outcome of checking one feed during one tick.
type UpdateResult struct {
	FeedURL string
	// Feed holds the metadata of a successful fetch and is nil on failure.
	Feed     *Feed
	NewPosts []*Post
	Err      error
}

func NewFailedUpdate(feedURL string, err error) UpdateResult {
	return UpdateResult{
		FeedURL:  feedURL,
		NewPosts: []*Post{},
		Err:      err,
	}
}

func (r UpdateResult) Failed() bool {
	return r.Err != nil
}

// ErrorKind is the kind string of the failure, or "" on success.
func (r UpdateResult) ErrorKind() string {
	return ErrorKind(r.Err)
}
