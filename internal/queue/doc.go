// Package queue holds the ordered list of utterances still waiting to be
// played. The head is removed when its playback completes and the whole
// queue is emptied on cancellation.
package queue
