package httpapi

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// pagination clamps page/page_size query params to spec.md §6's bounds
// (page>=1, 1<=page_size<=100) and returns the equivalent SQL
// limit/offset.
func pagination(c *gin.Context) (page, pageSize, limit, offset int) {
	page = queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = queryInt(c, "page_size", 20)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, pageSize, (page - 1) * pageSize
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func pathInt64(c *gin.Context, key string) (int64, bool) {
	v := c.Param(key)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractContractInfo splits a filename's stem on the first '-' into
// (contract_number, contract_name); with no separator both equal the
// stem, mirroring original_source/.../contracts.py's
// extract_contract_info.
func extractContractInfo(filename string) (contractNumber, contractName string) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if idx := strings.Index(stem, "-"); idx >= 0 {
		number := strings.TrimSpace(stem[:idx])
		name := strings.TrimSpace(stem[idx+1:])
		if name == "" {
			name = stem
		}
		return number, name
	}
	return stem, stem
}

// fileFormat uppercases the filename's extension with the leading dot
// stripped, e.g. "C1-x.pdf" -> "PDF".
func fileFormat(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	return strings.ToUpper(ext)
}

// isSupportedFormat reports whether filename's extension appears in
// allowed (case-insensitive, dot-prefixed entries like ".pdf").
func isSupportedFormat(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if strings.ToLower(a) == ext {
			return true
		}
	}
	return false
}
