// Package transport provides the byte-channel abstraction an mti session
// talks through, along with the real serial implementation.
//
// The MTI driver board speaks a line-oriented ASCII protocol over a serial
// link at a fixed 115200 baud, 8 data bits, no parity, one stop bit. The
// [Transport] interface hides the port behind three read/write primitives so
// the protocol layer can run unchanged against real hardware, an in-memory
// simulator, or a test mock.
//
// # Read Semantics
//
// The driver board never pushes unsolicited data; every read follows a
// command write. Reads are therefore bounded rather than blocking: both
// [Transport.ReadLine] and [Transport.ReadUpTo] wait at most the configured
// read timeout for data and return whatever arrived, possibly nothing, with
// a nil error. Distinguishing an empty reply from a dead or absent device is
// the protocol layer's job, not the transport's.
package transport
