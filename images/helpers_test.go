package images

import (
	"crypto/md5"
	"encoding/hex"

	"gocv.io/x/gocv"
)

// matChecksum returns a hex MD5 of the Mat's pixel data, or "empty".
func matChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}
	data, err := mat.DataPtrUint8()
	if err != nil {
		return "unreadable"
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
