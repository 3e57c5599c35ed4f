// Package task manages background job queuing, processing, and lifecycle.
// It provides the bounded task queue that serializes user submissions,
// the fixed worker pool that drains it, and the generation task that
// turns document pages into quiz records batch by batch.
package task
