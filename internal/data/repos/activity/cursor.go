package activity

import (
	"encoding/base64"
	"strconv"

	"github.com/yungbote/activitylog-backend/internal/pkg/apperr"
)

// Cursors are opaque to callers: a base64 wrapper around the last id the
// page returned. Keyset pagination keeps pages non-overlapping and
// order-preserving even while writers keep appending.

func EncodeCursor(lastID int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(lastID, 10)))
}

func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, apperr.Validationf("malformed cursor: %v", err)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, apperr.Validation("malformed cursor")
	}
	return id, nil
}
