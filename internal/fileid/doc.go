// Package fileid defines the file identity used as the verdict cache key and
// the audio format recognition rules applied before analysis.
package fileid
