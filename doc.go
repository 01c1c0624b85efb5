/*
Package vmap implements a concurrent tagged-value container with a binary
wire format, so producers and consumers in different runtimes can exchange
identical byte streams.

We implement:

1. Value, a named sum type holding one of 16 payload kinds (null, bool,
eight integer widths, two float widths, string, bytes, nested container,
array), each value guarded by its own reader-writer lock.

2. Container, a key→Value store under a single reader-writer lock with
insertion order preserved, bulk callback transactions, compare-exchange,
and whole-store serialization.

3. SnapshotReader and AutoRefreshReader, read-copy-update views whose reads
are one atomic pointer load into an immutable snapshot, never a lock.

4. Storage policies (linear-scan and hash-indexed) and a generic
PolicyContainer for single-owner use without built-in locking.

5. A bbolt-backed FileStore plus a worker-pool AsyncStore for suspendable
save/load, and projections into JSON and MessagePack.

# Wire format

All integers are big-endian. A value encodes as:

1. Name length (4 bytes), name (UTF-8).
2. Tag (1 byte), the Kind value.
3. Payload: nothing for null; 1 byte for bool; raw fixed-width bytes for
integers and floats; 4-byte length plus bytes for strings and blobs;
4-byte length plus a recursively encoded envelope for a nested container
(length 0 means absent); 4-byte count plus self-describing elements for an
array, where a null placeholder stands for an absent slot.

A container envelope is a flags byte, an optional header block (six
length-prefixed strings: source id/sub-id, target id/sub-id, message type,
version; omitted entirely when every field has its default), then a 4-byte
value count followed by the values in insertion order.

Decoding validates every length against the remaining buffer before
consuming, so arbitrary input can never cause an out-of-bounds read; all
failures surface as a DataError.

Tags 8 and 9 are legacy long-long aliases accepted on decode and folded
into the canonical 64-bit tags 6 and 7; encoding never emits them.

Containers may legitimately contain themselves through shared nested-value
references. The encoder carries a per-call guard of containers currently on
its stack and writes a reentrant container as absent, so self-referential
graphs encode in bounded space.
*/
package vmap
