// Package transfer implements the adaptive streaming session that pushes a
// byte source of known length into a named channel feeding the external
// loader.
//
// The reader side (the loader process) closing the channel early is treated
// as a capacity mismatch, not a permanent fault: the session halves the
// chunk size, reopens the channel, rewinds the source to offset zero and
// retries the whole stream. Only total exhaustion of chunk sizes surfaces
// to the caller; individual attempt failures are recovered locally.
//
// Components:
//   - ChunkBackoff: descending power-of-two chunk-size strategy
//   - PipeClassifier: distinguishes transport failures (reader closed its
//     end) from fatal errors
//   - Session: the retry loop itself
package transfer
