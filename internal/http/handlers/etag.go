package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes payload with an ETag derived from version only,
// so wording changes in the envelope don't invalidate client caches. A
// matching If-None-Match gets 304 with no body.
func RespondJSONWithETag(ctx *gin.Context, status int, payload, version interface{}) {
	etag, err := etagFor(version)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	ctx.Header("ETag", etag)

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, payload)
}

// weak: equal data, not byte-identical bodies
func etagFor(version interface{}) (string, error) {
	b, err := json.Marshal(version)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return `W/"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

// etagMatches applies the weak comparison If-None-Match calls for.
func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	want := opaqueTag(etag)
	for _, candidate := range strings.Split(header, ",") {
		if opaqueTag(candidate) == want {
			return true
		}
	}
	return false
}

func opaqueTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "W/")
}
