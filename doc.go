// Package bencode implements the Bencode serialization format used by
// BitTorrent metadata: a strict recursive-descent parser that reports exact
// byte offsets, and a canonical encoder.
//
// Values:
//
//	Integer     i<digits>e           unsigned, 64-bit
//	ByteString  <len>:<bytes>        raw bytes, not required to be text
//	List        l<value>*e
//	*Dict       d(<string><value>)*e keys always kept in ascending byte order
//
// Dictionaries keep their keys sorted on every insertion, so two dictionaries
// holding the same entries are equal and encode to the same bytes no matter
// how they were built.
//
// Errors come in two tiers. Malformed input is reported as a *SyntaxError
// wrapping one of the Err* sentinels:
//
//	v, err := bencode.Parse(data)
//	if errors.Is(err, bencode.ErrMissingTerminator) { ... }
//
// Asking an already-accepted value for the wrong shape (MustInteger on a
// list, for example) is a programming error and panics with a *ShapeError.
//
// Round trip:
//
//	v, _ := bencode.Parse(data)
//	out := bencode.Encode(v)      // canonical form
//	w, _ := bencode.Parse(out)    // bencode.Equal(v, w) == true
package bencode
