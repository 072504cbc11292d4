package driven

import "context"

// Watcher reports files created or written under a directory.
type Watcher interface {
	// Watch calls onChange for each changed regular file until ctx is done.
	Watch(ctx context.Context, dir string, onChange func(path string)) error
}
