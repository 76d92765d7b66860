// Package bbtx provides a bit-banged asynchronous serial transmitter.
//
// The transmitter frames bytes as 8N1 symbols (1 start bit, 8 data bits
// LSB first, no parity, 1 stop bit) and emits every bit by calling a
// Writer a fixed number of times. No clock or timer is involved: each
// call to the Writer is assumed to take a roughly constant time, which
// is measured once with Calibrate and an oscilloscope or logic analyzer
// and then passed to Open as the write duration.
//
// All operations are synchronous and block until every underlying write
// completes. A Channel is not safe for concurrent use.
package bbtx
