// Package deps reports whether the external binaries streamstrip shells out
// to are installed, and which version they are.
package deps
