package hashing

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DefaultBlockSize is the read block size used when none is configured.
const DefaultBlockSize = 2 * 1024 * 1024

// DigestFile streams the file at path through the named algorithm in
// fixed-size blocks and returns the hex digest and the number of bytes read.
// The result is a pure function of the file's bytes and the algorithm.
// An unopenable or unreadable file returns an error; pipelines convert that
// into an OSERROR outcome rather than aborting.
func DigestFile(path, algorithm string, blockSize int) (string, int64, error) {
	hasher, err := New(algorithm)
	if err != nil {
		return "", 0, err
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var size int64
	buf := make([]byte, blockSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
			size += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", size, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
