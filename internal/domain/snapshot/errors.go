package snapshot

import "errors"

var (
	ErrSnapshotNotFound         = errors.New("snapshot not found")
	ErrSnapshotEmpty            = errors.New("snapshot has no employee data")
	ErrSnapshotPayloadMalformed = errors.New("snapshot payload is malformed")
	ErrSnapshotVersionExhausted = errors.New("all snapshot versions A-Z are used for this scope and month")
)
