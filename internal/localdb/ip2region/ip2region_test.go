package ip2region

import (
	"testing"

	"coord-api/internal/localdb"

	"github.com/stretchr/testify/assert"
)

func TestParseRegion(t *testing.T) {
	r := ParseRegion("中国|0|广东省|深圳市|电信")
	assert.Equal(t, localdb.Region{Country: "中国", Province: "广东省", City: "深圳市", ISP: "电信"}, r)

	r = ParseRegion("美国|Unknown|0")
	assert.Equal(t, localdb.Region{Country: "美国"}, r)
}

func TestLookupWithoutDatabases(t *testing.T) {
	s, err := Open("", "")
	assert.NoError(t, err)
	_, ok := s.Lookup("1.2.3.4")
	assert.False(t, ok)
	_, ok = s.Lookup("")
	assert.False(t, ok)
	s.Close()
}
