package httpapi

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestContext(rawQuery string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return c
}

func TestPaginationDefaults(t *testing.T) {
	c := newTestContext("")
	page, pageSize, limit, offset := pagination(c)
	if page != 1 || pageSize != 20 || limit != 20 || offset != 0 {
		t.Errorf("expected defaults page=1 page_size=20, got page=%d page_size=%d limit=%d offset=%d", page, pageSize, limit, offset)
	}
}

func TestPaginationClampsPageSizeTo100(t *testing.T) {
	c := newTestContext("page_size=500")
	_, pageSize, _, _ := pagination(c)
	if pageSize != 100 {
		t.Errorf("expected page_size clamped to 100, got %d", pageSize)
	}
}

func TestPaginationClampsPageTo1(t *testing.T) {
	c := newTestContext("page=0")
	page, _, _, _ := pagination(c)
	if page != 1 {
		t.Errorf("expected page clamped to 1, got %d", page)
	}
}

func TestPaginationComputesOffset(t *testing.T) {
	c := newTestContext("page=3&page_size=10")
	page, pageSize, limit, offset := pagination(c)
	if page != 3 || pageSize != 10 || limit != 10 || offset != 20 {
		t.Errorf("expected page=3 page_size=10 limit=10 offset=20, got page=%d page_size=%d limit=%d offset=%d", page, pageSize, limit, offset)
	}
}
