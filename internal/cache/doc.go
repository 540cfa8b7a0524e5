// Package cache maps spoken text to the audio artifact synthesized for it.
// Each entry owns a file on disk; removing an entry deletes the file.
package cache
