package worldmgr

import "errors"

// ErrPoolExhausted is returned by chunk-creating operations when the free
// pool is empty and the configured pool size has already been reached (§7,
// PoolExhausted). Streaming continues; the caller is not a fatal failure.
var ErrPoolExhausted = errors.New("worldmgr: chunk pool exhausted")

// ErrPreserveDisabled is returned by AdoptChunk when preserve_editor_chunks
// is not enabled on the world's configuration.
var ErrPreserveDisabled = errors.New("worldmgr: preserve_editor_chunks is disabled")
