package portpos

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"time"
)

// AuthHeader builds the bearer credential PortPos expects on every request:
// base64(appKey + ":" + md5(secretKey + unixTimestamp)), prefixed with "Bearer ".
// The timestamp is taken fresh per call, so consecutive calls can legitimately
// produce different headers; the provider tolerates small clock skew.
func AuthHeader(appKey, secretKey string, now time.Time) string {
	sum := md5.Sum([]byte(secretKey + strconv.FormatInt(now.Unix(), 10)))
	token := appKey + ":" + hex.EncodeToString(sum[:])
	return "Bearer " + base64.StdEncoding.EncodeToString([]byte(token))
}
