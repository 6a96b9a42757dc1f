// Package drivers contains the concrete data-source drivers. Each
// subpackage implements driven.Driver for one external source; httpx
// carries the HTTP plumbing they share.
package drivers
