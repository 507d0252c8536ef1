// Package lockfile implements a cross-process lock built from the
// filesystem's atomic exclusive-create primitive. File existence is the
// entire lock state; no in-memory coordination is involved.
package lockfile
