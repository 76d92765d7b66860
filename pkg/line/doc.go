// Package line captures and decodes the bits written to a bbtx.Channel.
package line
