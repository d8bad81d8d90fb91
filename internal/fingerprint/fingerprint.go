// Package fingerprint identifies a pipeline run by a digest of its
// meaningful inputs, and derives the working directory name from it.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// Digest hashes the given values concatenated in order, with no separator,
// and returns the lower-case hex digest. The same ordered values always give
// the same digest, across processes and platforms. Ordering is the caller's
// job: values must come from a stable declaration order so that reruns with
// the same inputs land in the same working directory.
//
// MD5 is deliberate here. The digest only needs to tell ordinary pipeline
// inputs apart, it is not a security boundary.
func Digest(values []string) string {
	h := md5.New()
	for _, v := range values {
		h.Write([]byte(v))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortLen is how many hex characters of the digest go into the working
// directory name.
const ShortLen = 8

// WorkDirName composes the working directory name for one run. It is unique
// per (program, user, digest, suffix) tuple; two runs with identical base
// inputs and no suffix intentionally share a name so an interrupted run can
// be resumed in place.
func WorkDirName(prog, user, digest, suffix string) string {
	if len(digest) > ShortLen {
		digest = digest[:ShortLen]
	}
	return fmt.Sprintf("_%s_%s_%s_%s", prog, user, digest, suffix)
}
